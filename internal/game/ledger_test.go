package game

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/wealth-builder/internal/types"
)

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func assertDecimal(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), append([]interface{}{"want %d, got %s", want, got.String()}, msgAndArgs...)...)
}

func newTestLedger(cash int64) *Ledger {
	return NewLedger(d(cash), NewMarket())
}

func setPrice(l *Ledger, id types.AssetID, price int64) {
	l.market.instruments[id].Price = d(price)
}

func TestLedgerInvestIsATransfer(t *testing.T) {
	l := newTestLedger(200000)

	require.NoError(t, l.Invest(types.Savings, d(50000)))
	assertDecimal(t, 150000, l.Cash)
	assertDecimal(t, 50000, l.Holding(types.Savings).Principal)
	assertDecimal(t, 200000, l.NetWorth)
}

func TestLedgerInvestRejections(t *testing.T) {
	l := newTestLedger(1000)

	// Test case 1: non-positive amounts
	assert.ErrorIs(t, l.Invest(types.Savings, d(0)), ErrInvalidAmount)
	assert.ErrorIs(t, l.Invest(types.Savings, d(-5)), ErrInvalidAmount)

	// Test case 2: more than the cash on hand
	assert.ErrorIs(t, l.Invest(types.Savings, d(1001)), ErrInsufficientCash)

	// Test case 3: tradables are bought, not invested
	assert.ErrorIs(t, l.Invest(types.Reliance, d(100)), ErrTradableAsset)

	// Test case 4: unknown asset
	assert.ErrorIs(t, l.Invest(types.AssetID("tulips"), d(100)), ErrUnknownAsset)

	// None of them moved money
	assertDecimal(t, 1000, l.Cash)
	assertDecimal(t, 1000, l.NetWorth)
	assert.True(t, l.HoldingsValue().IsZero())
}

func TestLedgerWithdrawProportional(t *testing.T) {
	l := newTestLedger(0)
	h := l.holdings[types.FixedDeposit]
	h.Principal = d(800)
	h.Profit = d(200)
	l.UpdateNetWorth()

	require.NoError(t, l.Withdraw(types.FixedDeposit, d(500)))
	assertDecimal(t, 400, l.Holding(types.FixedDeposit).Principal)
	assertDecimal(t, 100, l.Holding(types.FixedDeposit).Profit)
	assertDecimal(t, 500, l.Cash)
	assertDecimal(t, 1000, l.NetWorth)

	// Withdrawing the exact remainder zeroes both parts
	require.NoError(t, l.Withdraw(types.FixedDeposit, d(500)))
	assert.True(t, l.Holding(types.FixedDeposit).Principal.IsZero())
	assert.True(t, l.Holding(types.FixedDeposit).Profit.IsZero())
	assertDecimal(t, 1000, l.Cash)
}

func TestLedgerWithdrawRejections(t *testing.T) {
	l := newTestLedger(1000)
	require.NoError(t, l.Invest(types.Gold, d(300)))

	assert.ErrorIs(t, l.Withdraw(types.Gold, d(301)), ErrInsufficientHoldings)
	assert.ErrorIs(t, l.Withdraw(types.Gold, d(0)), ErrInvalidAmount)
	assert.ErrorIs(t, l.Withdraw(types.Bitcoin, d(10)), ErrTradableAsset)
	assertDecimal(t, 300, l.Holding(types.Gold).Principal)
	assertDecimal(t, 700, l.Cash)
}

func TestLedgerBuyAndSellAtProfit(t *testing.T) {
	l := newTestLedger(5000)
	setPrice(l, types.Reliance, 100)

	require.NoError(t, l.Buy(types.ClassStock, types.Reliance, d(10)))
	assertDecimal(t, 4000, l.Cash)
	assertDecimal(t, 10, l.Holding(types.Reliance).Quantity)
	assertDecimal(t, 1000, l.Holding(types.Reliance).Principal)

	setPrice(l, types.Reliance, 120)
	require.NoError(t, l.Sell(types.ClassStock, types.Reliance, d(5)))

	h := l.Holding(types.Reliance)
	assertDecimal(t, 4600, l.Cash)
	assertDecimal(t, 5, h.Quantity)
	assertDecimal(t, 500, h.Principal)
	assertDecimal(t, 100, h.Profit)
}

func TestLedgerSellAtLoss(t *testing.T) {
	l := newTestLedger(5000)
	setPrice(l, types.Reliance, 100)
	require.NoError(t, l.Buy(types.ClassStock, types.Reliance, d(10)))

	setPrice(l, types.Reliance, 50)
	require.NoError(t, l.Sell(types.ClassStock, types.Reliance, d(5)))

	// the 250 loss has no profit to absorb it, so it comes out of principal
	h := l.Holding(types.Reliance)
	assertDecimal(t, 4250, l.Cash)
	assertDecimal(t, 250, h.Principal)
	assert.True(t, h.Profit.IsZero())
	assert.False(t, h.Principal.IsNegative())

	// closing the position clears principal entirely
	require.NoError(t, l.Sell(types.ClassStock, types.Reliance, d(5)))
	h = l.Holding(types.Reliance)
	assert.True(t, h.Quantity.IsZero())
	assert.True(t, h.Principal.IsZero())
	assert.True(t, h.Profit.IsZero())
}

func TestLedgerBuyRoundsCostUp(t *testing.T) {
	l := newTestLedger(1000)
	setPrice(l, types.Dogecoin, 10)
	tiny := decimal.RequireFromString("0.0004")

	// 0.004 worth of coin costs a whole paisa
	require.NoError(t, l.Buy(types.ClassCrypto, types.Dogecoin, tiny))
	assert.True(t, l.Cash.Equal(decimal.RequireFromString("999.99")), l.Cash.String())
	assert.True(t, l.Holding(types.Dogecoin).Principal.Equal(decimal.RequireFromString("0.01")))

	for i := 1; i < 2500; i++ {
		require.NoError(t, l.Buy(types.ClassCrypto, types.Dogecoin, tiny))
	}
	assertDecimal(t, 1, l.Holding(types.Dogecoin).Quantity)
	assertDecimal(t, 975, l.Cash)
	assertDecimal(t, 1000, l.NetWorth)

	require.NoError(t, l.Sell(types.ClassCrypto, types.Dogecoin, d(1)))
	assertDecimal(t, 985, l.Cash)
	assertDecimal(t, 985, l.NetWorth)
	assert.True(t, l.Holding(types.Dogecoin).Value().IsZero())
}

func TestLedgerSellRoundsProceedsDown(t *testing.T) {
	l := newTestLedger(1000)
	setPrice(l, types.Dogecoin, 10)
	require.NoError(t, l.Buy(types.ClassCrypto, types.Dogecoin, d(1)))

	require.NoError(t, l.Sell(types.ClassCrypto, types.Dogecoin, decimal.RequireFromString("0.0009")))
	assertDecimal(t, 990, l.Cash)
	assert.True(t, l.NetWorth.LessThanOrEqual(d(1000)))
}

func TestLedgerBoundaryLaws(t *testing.T) {
	tests := []struct {
		name  string
		cash  int64
		run   func(t *testing.T, l *Ledger)
		check func(t *testing.T, l *Ledger)
	}{
		{
			name: "invest then withdraw the same amount restores cash and principal",
			cash: 200000,
			run: func(t *testing.T, l *Ledger) {
				require.NoError(t, l.Invest(types.IndexFund, d(75000)))
				require.NoError(t, l.Withdraw(types.IndexFund, d(75000)))
			},
			check: func(t *testing.T, l *Ledger) {
				assertDecimal(t, 200000, l.Cash)
				assert.True(t, l.Holding(types.IndexFund).Principal.IsZero())
				assert.True(t, l.Holding(types.IndexFund).Profit.IsZero())
				assertDecimal(t, 200000, l.NetWorth)
			},
		},
		{
			name: "investing all cash leaves exactly zero",
			cash: 123456,
			run: func(t *testing.T, l *Ledger) {
				require.NoError(t, l.Invest(types.Gold, d(123456)))
			},
			check: func(t *testing.T, l *Ledger) {
				assert.True(t, l.Cash.IsZero(), l.Cash.String())
				assertDecimal(t, 123456, l.Holding(types.Gold).Principal)
				assertDecimal(t, 123456, l.NetWorth)
			},
		},
		{
			name: "selling every unit at cost leaves profit unchanged",
			cash: 5000,
			run: func(t *testing.T, l *Ledger) {
				setPrice(l, types.TCS, 100)
				require.NoError(t, l.Buy(types.ClassStock, types.TCS, d(10)))
				require.NoError(t, l.Sell(types.ClassStock, types.TCS, d(10)))
			},
			check: func(t *testing.T, l *Ledger) {
				h := l.Holding(types.TCS)
				assert.True(t, h.Quantity.IsZero())
				assert.True(t, h.Principal.IsZero())
				assert.True(t, h.Profit.IsZero())
				assertDecimal(t, 5000, l.Cash)
			},
		},
		{
			name: "closing at cost keeps profit booked by an earlier sale",
			cash: 5000,
			run: func(t *testing.T, l *Ledger) {
				setPrice(l, types.TCS, 100)
				require.NoError(t, l.Buy(types.ClassStock, types.TCS, d(10)))
				setPrice(l, types.TCS, 120)
				require.NoError(t, l.Sell(types.ClassStock, types.TCS, d(5)))
				setPrice(l, types.TCS, 100)
				require.NoError(t, l.Sell(types.ClassStock, types.TCS, d(5)))
			},
			check: func(t *testing.T, l *Ledger) {
				h := l.Holding(types.TCS)
				assert.True(t, h.Quantity.IsZero())
				assert.True(t, h.Principal.IsZero())
				assertDecimal(t, 100, h.Profit)
				assertDecimal(t, 5100, l.Cash)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(tt.cash)
			tt.run(t, l)
			tt.check(t, l)
		})
	}
}

func TestLedgerTradeRejections(t *testing.T) {
	l := newTestLedger(1000)
	setPrice(l, types.Reliance, 100)

	assert.ErrorIs(t, l.Buy(types.ClassStock, types.Reliance, d(11)), ErrInsufficientCash)
	assert.ErrorIs(t, l.Buy(types.ClassStock, types.Reliance, d(0)), ErrInvalidQuantity)
	assert.ErrorIs(t, l.Buy(types.ClassCrypto, types.Reliance, d(1)), ErrWrongAssetClass)
	assert.ErrorIs(t, l.Buy(types.ClassStock, types.Savings, d(1)), ErrNotTradable)
	assert.ErrorIs(t, l.Sell(types.ClassStock, types.Reliance, d(1)), ErrInsufficientUnits)
	assertDecimal(t, 1000, l.Cash)
}

func TestLedgerBuyFractionalUnits(t *testing.T) {
	l := newTestLedger(300000)

	require.NoError(t, l.Buy(types.ClassCrypto, types.Bitcoin, decimal.RequireFromString("0.1")))
	assertDecimal(t, 50000, l.Cash)
	assertDecimal(t, 250000, l.Holding(types.Bitcoin).Principal)
	assertDecimal(t, 300000, l.NetWorth)
}

func TestLedgerLiquidateForExpense(t *testing.T) {
	l := newTestLedger(70000)
	require.NoError(t, l.Invest(types.Savings, d(40000)))
	assertDecimal(t, 30000, l.Cash)

	raised := l.Liquidate(d(75000))
	assertDecimal(t, 40000, raised)

	l.Debit(d(75000))
	assertDecimal(t, -5000, l.Cash)
	assertDecimal(t, -5000, l.NetWorth)
	assert.True(t, l.HoldingsValue().IsZero())
}

func TestLedgerLiquidateOrder(t *testing.T) {
	l := newTestLedger(30000)
	setPrice(l, types.Reliance, 100)
	require.NoError(t, l.Invest(types.Savings, d(10000)))
	require.NoError(t, l.Invest(types.Gold, d(10000)))
	require.NoError(t, l.Buy(types.ClassStock, types.Reliance, d(10)))

	// non-tradables go first, in catalog order
	raised := l.Liquidate(d(15000))
	assertDecimal(t, 15000, raised)
	assert.True(t, l.Holding(types.Savings).Value().IsZero())
	assertDecimal(t, 5000, l.Holding(types.Gold).Value())
	assertDecimal(t, 10, l.Holding(types.Reliance).Quantity)

	// tradables give up units in the same fraction as book value
	raised = l.Liquidate(d(5500))
	assertDecimal(t, 5500, raised)
	assert.True(t, l.Holding(types.Gold).Value().IsZero())
	assertDecimal(t, 5, l.Holding(types.Reliance).Quantity)
	assertDecimal(t, 500, l.Holding(types.Reliance).Principal)
}

func TestLedgerNetWorthIdentity(t *testing.T) {
	l := newTestLedger(100000)
	setPrice(l, types.Ethereum, 1000)

	require.NoError(t, l.Invest(types.PPF, d(20000)))
	require.NoError(t, l.Buy(types.ClassCrypto, types.Ethereum, d(3)))
	require.NoError(t, l.Withdraw(types.PPF, d(5000)))
	l.Liquidate(d(1000))

	sum := l.Cash
	for _, view := range l.views() {
		sum = sum.Add(view.Principal).Add(view.Profit)
	}
	assert.True(t, sum.Equal(l.NetWorth), "sum %s, net worth %s", sum, l.NetWorth)
}
