package model

type CommissionMode string

const (
	CommissionModeAutoDiff CommissionMode = "auto-diff"
	CommissionModeFixed    CommissionMode = "fixed"
)

func (m CommissionMode) Valid() bool {
	return m == CommissionModeAutoDiff || m == CommissionModeFixed
}

// CommissionPolicy decides how the intermediary commission is derived.
// FixedValue, when set, overrides FixedRatePerTonne in fixed mode.
type CommissionPolicy struct {
	Mode              CommissionMode
	FixedRatePerTonne float64
	FixedValue        *float64
}

type Company struct {
	Name    string
	CUIT    string
	Address string
	Phone   string
	Logo    string
}

type Settings struct {
	Company    Company
	Commission CommissionPolicy
}
