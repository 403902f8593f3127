package game

import (
	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/internal/types"
)

// quantities keep eight places so fractional crypto and property units survive
const quantityPlaces = 8

// Holding is the ledger entry of one asset
type Holding struct {
	Principal decimal.Decimal
	Profit    decimal.Decimal
	// Units owned, tradables only
	Quantity decimal.Decimal
}

// Value is the ledger's book value of the holding
func (h Holding) Value() decimal.Decimal {
	return h.Principal.Add(h.Profit)
}

// take removes amount from the holding, split between principal and profit
// in proportion to their current sizes
func (h *Holding) take(amount decimal.Decimal) {
	total := h.Value()
	if amount.GreaterThanOrEqual(total) {
		h.Principal = decimal.Zero
		h.Profit = decimal.Zero
		return
	}

	fromPrincipal := amount
	if h.Profit.IsPositive() {
		fromPrincipal = amount.Mul(h.Principal).Div(total).Round(2)
	}
	fromProfit := amount.Sub(fromPrincipal)
	if fromProfit.GreaterThan(h.Profit) {
		fromProfit = h.Profit
		fromPrincipal = amount.Sub(fromProfit)
	}

	h.Principal = decimal.Max(decimal.Zero, h.Principal.Sub(fromPrincipal))
	h.Profit = decimal.Max(decimal.Zero, h.Profit.Sub(fromProfit))
}

// Ledger owns the player's cash and holdings.
// NetWorth is derived and refreshed by every mutating operation.
type Ledger struct {
	Cash     decimal.Decimal
	NetWorth decimal.Decimal

	holdings map[types.AssetID]*Holding
	market   *Market
}

// NewLedger creates a ledger with zeroed holdings for the whole catalog
func NewLedger(cash decimal.Decimal, market *Market) *Ledger {
	l := &Ledger{
		Cash:     cash,
		holdings: make(map[types.AssetID]*Holding),
		market:   market,
	}
	for _, spec := range types.Catalog() {
		l.holdings[spec.ID] = &Holding{}
	}
	l.UpdateNetWorth()
	return l
}

// Holding returns a copy of the entry for id
func (l *Ledger) Holding(id types.AssetID) Holding {
	if h, ok := l.holdings[id]; ok {
		return *h
	}
	return Holding{}
}

// UpdateNetWorth recomputes cash plus the book value of every holding
func (l *Ledger) UpdateNetWorth() decimal.Decimal {
	total := l.Cash
	for _, h := range l.holdings {
		total = total.Add(h.Value())
	}
	l.NetWorth = total
	return total
}

// HoldingsValue is the book value of all holdings
func (l *Ledger) HoldingsValue() decimal.Decimal {
	return l.UpdateNetWorth().Sub(l.Cash)
}

func (l *Ledger) pooled(id types.AssetID) (*Holding, error) {
	spec, ok := types.LookupAsset(id)
	if !ok {
		return nil, ErrUnknownAsset
	}
	if spec.Tradable() {
		return nil, ErrTradableAsset
	}
	return l.holdings[id], nil
}

func (l *Ledger) tradable(class types.AssetClass, id types.AssetID) (*Holding, *Instrument, error) {
	spec, ok := types.LookupAsset(id)
	if !ok {
		return nil, nil, ErrUnknownAsset
	}
	if !spec.Tradable() {
		return nil, nil, ErrNotTradable
	}
	if spec.Class != class {
		return nil, nil, ErrWrongAssetClass
	}
	inst, ok := l.market.Instrument(id)
	if !ok {
		return nil, nil, ErrUnknownAsset
	}
	return l.holdings[id], inst, nil
}

// Invest moves amount of cash into a non-tradable asset
func (l *Ledger) Invest(id types.AssetID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	h, err := l.pooled(id)
	if err != nil {
		return err
	}
	if amount.GreaterThan(l.Cash) {
		return ErrInsufficientCash
	}

	h.Principal = h.Principal.Add(amount)
	l.Cash = l.Cash.Sub(amount)
	l.UpdateNetWorth()
	return nil
}

// Withdraw moves amount out of a non-tradable asset back to cash,
// keeping the holding's principal to profit ratio
func (l *Ledger) Withdraw(id types.AssetID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	h, err := l.pooled(id)
	if err != nil {
		return err
	}
	if amount.GreaterThan(h.Value()) {
		return ErrInsufficientHoldings
	}

	h.take(amount)
	l.Cash = l.Cash.Add(amount)
	l.UpdateNetWorth()
	return nil
}

// Buy purchases quantity units of a tradable at its current price
func (l *Ledger) Buy(class types.AssetClass, id types.AssetID, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	h, inst, err := l.tradable(class, id)
	if err != nil {
		return err
	}
	// paise are rounded against the player in both directions
	cost := inst.Price.Mul(quantity).RoundCeil(2)
	if cost.GreaterThan(l.Cash) {
		return ErrInsufficientCash
	}

	h.Principal = h.Principal.Add(cost)
	h.Quantity = h.Quantity.Add(quantity)
	l.Cash = l.Cash.Sub(cost)
	l.UpdateNetWorth()
	return nil
}

// Sell disposes of quantity units at the current price.
//
// The sold units carry their average cost out of principal and the gain or
// loss against that cost is booked to profit. A loss larger than the
// holding's profit is absorbed by principal; neither goes below zero.
func (l *Ledger) Sell(class types.AssetClass, id types.AssetID, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	h, inst, err := l.tradable(class, id)
	if err != nil {
		return err
	}
	if quantity.GreaterThan(h.Quantity) {
		return ErrInsufficientUnits
	}

	reduction := h.Principal
	if quantity.LessThan(h.Quantity) {
		reduction = h.Principal.Div(h.Quantity).Mul(quantity).Round(2)
	}
	sale := inst.Price.Mul(quantity).RoundFloor(2)

	h.Principal = h.Principal.Sub(reduction)
	h.Profit = h.Profit.Add(sale.Sub(reduction))
	if h.Profit.IsNegative() {
		h.Principal = h.Principal.Add(h.Profit)
		h.Profit = decimal.Zero
	}
	h.Principal = decimal.Max(decimal.Zero, h.Principal)
	h.Quantity = h.Quantity.Sub(quantity)

	l.Cash = l.Cash.Add(sale)
	l.UpdateNetWorth()
	return nil
}

// Liquidate raises up to amount of cash by withdrawing from holdings in
// catalog order, non-tradables first. Units of a tradable are given up in
// the same fraction as its book value. It returns the cash raised.
func (l *Ledger) Liquidate(amount decimal.Decimal) decimal.Decimal {
	raised := decimal.Zero
	if !amount.IsPositive() {
		return raised
	}

	walk := func(tradables bool) {
		for _, spec := range types.Catalog() {
			if spec.Tradable() != tradables {
				continue
			}
			remaining := amount.Sub(raised)
			if !remaining.IsPositive() {
				return
			}
			h := l.holdings[spec.ID]
			value := h.Value()
			if !value.IsPositive() {
				continue
			}
			portion := decimal.Min(remaining, value)
			if tradables {
				if portion.Equal(value) {
					h.Quantity = decimal.Zero
				} else {
					sold := h.Quantity.Mul(portion).Div(value).Round(quantityPlaces)
					h.Quantity = decimal.Max(decimal.Zero, h.Quantity.Sub(sold))
				}
			}
			h.take(portion)
			raised = raised.Add(portion)
		}
	}
	walk(false)
	walk(true)

	l.Cash = l.Cash.Add(raised)
	l.UpdateNetWorth()
	return raised
}

// Debit removes amount from cash and may leave it negative.
// Only expense settlement uses it.
func (l *Ledger) Debit(amount decimal.Decimal) {
	l.Cash = l.Cash.Sub(amount)
	l.UpdateNetWorth()
}

// Credit adds amount to cash
func (l *Ledger) Credit(amount decimal.Decimal) {
	l.Cash = l.Cash.Add(amount)
	l.UpdateNetWorth()
}

func (l *Ledger) views() []types.HoldingView {
	catalog := types.Catalog()
	out := make([]types.HoldingView, 0, len(catalog))
	for _, spec := range catalog {
		h := l.holdings[spec.ID]
		v := types.HoldingView{
			Asset:     spec.ID,
			Class:     spec.Class,
			Principal: h.Principal,
			Profit:    h.Profit,
			Value:     h.Value(),
			Quantity:  h.Quantity,
		}
		if spec.Tradable() {
			v.MarketValue = l.market.Price(spec.ID).Mul(h.Quantity).Round(2)
		}
		out = append(out, v)
	}
	return out
}
