package types

import "github.com/shopspring/decimal"

// AssetClass groups assets by how they are held and priced
type AssetClass string

const (
	ClassTraditional AssetClass = "traditional"
	ClassStock       AssetClass = "stock"
	ClassCrypto      AssetClass = "crypto"
	ClassRealEstate  AssetClass = "realestate"
)

// Tradable reports whether assets of this class have a unit price and quantity
func (c AssetClass) Tradable() bool {
	return c == ClassStock || c == ClassCrypto || c == ClassRealEstate
}

// AssetID identifies one entry of the fixed asset catalog.
// Tradables use their ticker symbol.
type AssetID string

const (
	Savings      AssetID = "savings"
	FixedDeposit AssetID = "fixedDeposit"
	PPF          AssetID = "ppf"
	IndexFund    AssetID = "indexFund"
	Gold         AssetID = "gold"

	Reliance   AssetID = "RELIANCE"
	TCS        AssetID = "TCS"
	Infosys    AssetID = "INFY"
	HDFCBank   AssetID = "HDFCBANK"
	TataMotors AssetID = "TATAMOTORS"

	Bitcoin  AssetID = "BTC"
	Ethereum AssetID = "ETH"
	Solana   AssetID = "SOL"
	Dogecoin AssetID = "DOGE"

	MumbaiApartment AssetID = "MUMBAI-APT"
	BangaloreVilla  AssetID = "BLR-VILLA"
	PunePlot        AssetID = "PUNE-PLOT"
)

// AssetSpec describes a catalog entry.
// AnnualRate applies to non-tradables; BasePrice and FloorRatio to tradables.
type AssetSpec struct {
	ID         AssetID         `json:"id"`
	Class      AssetClass      `json:"class"`
	Name       string          `json:"name"`
	AnnualRate float64         `json:"annual_rate,omitempty"`
	Volatility float64         `json:"volatility"`
	BasePrice  decimal.Decimal `json:"base_price"`
	FloorRatio float64         `json:"floor_ratio,omitempty"`
}

// Tradable reports whether the asset is bought and sold in units
func (s AssetSpec) Tradable() bool {
	return s.Class.Tradable()
}

const (
	// Perturbation applied to the monthly rate of the traditional instruments
	TraditionalVolatility = 0.5

	StockFloorRatio      = 0.5
	CryptoFloorRatio     = 0.3
	RealEstateFloorRatio = 0.7
)

func tradable(id AssetID, class AssetClass, name string, price int64, vol, floor float64) AssetSpec {
	return AssetSpec{ID: id, Class: class, Name: name, Volatility: vol, BasePrice: decimal.NewFromInt(price), FloorRatio: floor}
}

// Ordering matters: expense liquidation walks holdings in catalog order.
var catalog = []AssetSpec{
	{ID: Savings, Class: ClassTraditional, Name: "Savings Account", AnnualRate: 0.04, Volatility: TraditionalVolatility},
	{ID: FixedDeposit, Class: ClassTraditional, Name: "Fixed Deposit", AnnualRate: 0.06, Volatility: TraditionalVolatility},
	{ID: PPF, Class: ClassTraditional, Name: "Public Provident Fund", AnnualRate: 0.07, Volatility: TraditionalVolatility},
	{ID: IndexFund, Class: ClassTraditional, Name: "Nifty 50 Index Fund", AnnualRate: 0.10, Volatility: 1.5},
	{ID: Gold, Class: ClassTraditional, Name: "Gold", AnnualRate: 0.08, Volatility: 1.2},

	tradable(Reliance, ClassStock, "Reliance Industries", 2500, 0.08, StockFloorRatio),
	tradable(TCS, ClassStock, "Tata Consultancy Services", 3500, 0.06, StockFloorRatio),
	tradable(Infosys, ClassStock, "Infosys", 1500, 0.07, StockFloorRatio),
	tradable(HDFCBank, ClassStock, "HDFC Bank", 1600, 0.05, StockFloorRatio),
	tradable(TataMotors, ClassStock, "Tata Motors", 900, 0.10, StockFloorRatio),

	tradable(Bitcoin, ClassCrypto, "Bitcoin", 2500000, 0.25, CryptoFloorRatio),
	tradable(Ethereum, ClassCrypto, "Ethereum", 150000, 0.30, CryptoFloorRatio),
	tradable(Solana, ClassCrypto, "Solana", 8000, 0.35, CryptoFloorRatio),
	tradable(Dogecoin, ClassCrypto, "Dogecoin", 10, 0.45, CryptoFloorRatio),

	tradable(MumbaiApartment, ClassRealEstate, "Mumbai Apartment Unit", 500000, 0.04, RealEstateFloorRatio),
	tradable(BangaloreVilla, ClassRealEstate, "Bangalore Villa Unit", 800000, 0.05, RealEstateFloorRatio),
	tradable(PunePlot, ClassRealEstate, "Pune Plot Unit", 300000, 0.06, RealEstateFloorRatio),
}

var catalogIndex = func() map[AssetID]AssetSpec {
	idx := make(map[AssetID]AssetSpec, len(catalog))
	for _, spec := range catalog {
		idx[spec.ID] = spec
	}
	return idx
}()

// Catalog returns every asset in catalog order
func Catalog() []AssetSpec {
	out := make([]AssetSpec, len(catalog))
	copy(out, catalog)
	return out
}

// LookupAsset returns the catalog entry for id
func LookupAsset(id AssetID) (AssetSpec, bool) {
	spec, ok := catalogIndex[id]
	return spec, ok
}

// AssetsOfClass returns the catalog entries of one class in catalog order
func AssetsOfClass(class AssetClass) []AssetSpec {
	var out []AssetSpec
	for _, spec := range catalog {
		if spec.Class == class {
			out = append(out, spec)
		}
	}
	return out
}
