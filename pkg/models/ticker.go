package models

// AssetType tags a resolved instrument with its broad category.
type AssetType string

const (
	AssetTypeStock     AssetType = "stock"
	AssetTypeEtf       AssetType = "etf"
	AssetTypeCurrency  AssetType = "currency"
	AssetTypeCommodity AssetType = "commodity"
	AssetTypeIndex     AssetType = "index"
	AssetTypeCrypto    AssetType = "crypto"
)

// IsValid checks whether the asset type is a known value
func (t AssetType) IsValid() bool {
	switch t {
	case AssetTypeStock, AssetTypeEtf, AssetTypeCurrency, AssetTypeCommodity, AssetTypeIndex, AssetTypeCrypto:
		return true
	}
	return false
}

// Catalog numeric asset-type codes, as stored in the instrument catalog.
const (
	AssetCodeCurrency  = 1
	AssetCodeCommodity = 2
	AssetCodeIndex     = 4
	AssetCodeStock     = 5
	AssetCodeEtf       = 6
	AssetCodeCrypto    = 10
)

// AssetTypeFromCode maps a catalog numeric code to its asset-type tag.
// Unknown codes map to the empty AssetType, which callers should drop.
func AssetTypeFromCode(code int) AssetType {
	switch code {
	case AssetCodeCurrency:
		return AssetTypeCurrency
	case AssetCodeCommodity:
		return AssetTypeCommodity
	case AssetCodeIndex:
		return AssetTypeIndex
	case AssetCodeStock:
		return AssetTypeStock
	case AssetCodeEtf:
		return AssetTypeEtf
	case AssetCodeCrypto:
		return AssetTypeCrypto
	}
	return ""
}

// AllAssetCodes returns every known catalog asset-type code.
func AllAssetCodes() []int {
	return []int{AssetCodeCurrency, AssetCodeCommodity, AssetCodeIndex, AssetCodeStock, AssetCodeEtf, AssetCodeCrypto}
}

// TickerMatch is one instrument resolved from the catalog for a turn. It is
// used as a disambiguation hint in agent prompts and never executed as SQL.
type TickerMatch struct {
	Ticker       string    `json:"ticker"`
	Name         string    `json:"name"`
	InstrumentID int64     `json:"instrumentId"`
	AssetType    AssetType `json:"assetType"`
}
