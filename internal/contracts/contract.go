package contracts

import "strings"

// ContractRow is one row of the contracts table as delivered by a loader.
// Cells are kept as text; casting happens in the validation stage so that
// missing and malformed cells can be reported instead of rejected.
type ContractRow struct {
	ContractID string `json:"ContractID"`
	BaseIndex  string `json:"BaseIndex"`
	Tenor      string `json:"Tenor"`
	Quantity   string `json:"Quantity"`
	Unit       string `json:"Unit"`
	Moisture   string `json:"Moisture"`
	TypicalFe  string `json:"TypicalFe"`
	Cost       string `json:"Cost"`
	Discount   string `json:"Discount"`
}

// PriceRow is one row of the prices table as delivered by a loader.
// Tenor may be blank; the observation date's month is used then.
type PriceRow struct {
	Index string `json:"Index"`
	Date  string `json:"Date"`
	Tenor string `json:"Tenor"`
	Price string `json:"Price"`
}

// ContractColumns lists the contracts table columns in report order
var ContractColumns = []string{
	"ContractID", "BaseIndex", "Tenor", "Quantity", "Unit",
	"Moisture", "TypicalFe", "Cost", "Discount",
}

// Values returns the cells in ContractColumns order
func (c ContractRow) Values() []string {
	return []string{
		c.ContractID, c.BaseIndex, c.Tenor, c.Quantity, c.Unit,
		c.Moisture, c.TypicalFe, c.Cost, c.Discount,
	}
}

// Unit is a quantity unit code
type Unit string

const (
	UnitWMT Unit = "WMT" // wet metric tonnes
	UnitDMT Unit = "DMT" // dry metric tonnes
)

// ParseUnit matches a unit code case-insensitively.
// ok is false for anything outside {WMT, DMT}.
func ParseUnit(raw string) (Unit, bool) {
	switch Unit(strings.ToUpper(strings.TrimSpace(raw))) {
	case UnitWMT:
		return UnitWMT, true
	case UnitDMT:
		return UnitDMT, true
	default:
		return "", false
	}
}
