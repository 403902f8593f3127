package game

import (
	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/internal/types"
)

var hundred = decimal.NewFromInt(100)

// Instrument is a tradable asset with a live price
type Instrument struct {
	Spec             types.AssetSpec
	Price            decimal.Decimal
	ChangePct        float64
	AnnualizedReturn float64
}

// NewInstrument creates an instrument at its base price
func NewInstrument(spec types.AssetSpec) *Instrument {
	return &Instrument{Spec: spec, Price: spec.BasePrice}
}

// Floor is the lowest price the instrument may reach
func (i *Instrument) Floor() decimal.Decimal {
	return floorPrice(i.Spec.BasePrice, i.Spec.FloorRatio)
}

func floorPrice(base decimal.Decimal, ratio float64) decimal.Decimal {
	return base.Mul(decimal.NewFromFloat(ratio))
}

// NextPrice draws one period's price move:
//
//	next = max(base*floorRatio, current + current*volatility*U(-1,1))
//
// and returns the new price with the percentage change from current.
func NextPrice(current, base decimal.Decimal, volatility, floorRatio float64, rng RandomSource) (decimal.Decimal, float64) {
	delta := current.Mul(decimal.NewFromFloat(volatility * uniform(rng)))
	next := current.Add(delta).Round(2)
	if floor := floorPrice(base, floorRatio); next.LessThan(floor) {
		next = floor
	}
	if current.IsZero() {
		return next, 0
	}
	change := next.Sub(current).Div(current).Mul(hundred).InexactFloat64()
	return next, change
}

// Tick moves the price one simulated month
func (i *Instrument) Tick(rng RandomSource) {
	i.Price, i.ChangePct = NextPrice(i.Price, i.Spec.BasePrice, i.Spec.Volatility, i.Spec.FloorRatio, rng)
	// monthly percentage change extrapolated to a year, display only
	i.AnnualizedReturn = i.ChangePct * 12
}

func (i *Instrument) view() types.InstrumentView {
	return types.InstrumentView{
		ID:               i.Spec.ID,
		Class:            i.Spec.Class,
		Name:             i.Spec.Name,
		BasePrice:        i.Spec.BasePrice,
		CurrentPrice:     i.Price,
		ChangePct:        i.ChangePct,
		AnnualizedReturn: i.AnnualizedReturn,
		Volatility:       i.Spec.Volatility,
		FloorRatio:       i.Spec.FloorRatio,
	}
}

// Market holds every tradable instrument of a session
type Market struct {
	instruments map[types.AssetID]*Instrument
	order       []types.AssetID
}

// NewMarket creates the tradable catalog at base prices
func NewMarket() *Market {
	m := &Market{instruments: make(map[types.AssetID]*Instrument)}
	for _, spec := range types.Catalog() {
		if !spec.Tradable() {
			continue
		}
		m.instruments[spec.ID] = NewInstrument(spec)
		m.order = append(m.order, spec.ID)
	}
	return m
}

// Instrument returns the live instrument for id
func (m *Market) Instrument(id types.AssetID) (*Instrument, bool) {
	inst, ok := m.instruments[id]
	return inst, ok
}

// Price returns the current price of id, zero when id is not tradable
func (m *Market) Price(id types.AssetID) decimal.Decimal {
	if inst, ok := m.instruments[id]; ok {
		return inst.Price
	}
	return decimal.Zero
}

// Tick moves every instrument one simulated month, in catalog order
func (m *Market) Tick(rng RandomSource) {
	for _, id := range m.order {
		m.instruments[id].Tick(rng)
	}
}

func (m *Market) views() []types.InstrumentView {
	out := make([]types.InstrumentView, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.instruments[id].view())
	}
	return out
}
