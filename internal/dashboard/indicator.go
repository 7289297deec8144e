package dashboard

import "fmt"

// Indicator is a typed enumeration of the queryable indicator columns. The
// set is closed: adding an indicator means adding a variant here and a column
// to the incidence table, keeping column selection out of request strings.
type Indicator int

const (
	IndicatorIncidence Indicator = iota
	IndicatorMortality
	IndicatorEffectiveTreatment
)

// Indicators lists every variant, in display order.
func Indicators() []Indicator {
	return []Indicator{IndicatorIncidence, IndicatorMortality, IndicatorEffectiveTreatment}
}

// ParseIndicator maps a request string onto a variant.
func ParseIndicator(s string) (Indicator, error) {
	switch s {
	case "incidence", "":
		return IndicatorIncidence, nil
	case "mortality":
		return IndicatorMortality, nil
	case "effective_treatment":
		return IndicatorEffectiveTreatment, nil
	default:
		return 0, fmt.Errorf("unknown indicator %q", s)
	}
}

func (i Indicator) String() string {
	switch i {
	case IndicatorIncidence:
		return "incidence"
	case IndicatorMortality:
		return "mortality"
	case IndicatorEffectiveTreatment:
		return "effective_treatment"
	default:
		return fmt.Sprintf("indicator(%d)", int(i))
	}
}

// Column is the incidence-table column backing this indicator. Every variant
// maps to a fixed identifier; request input never reaches SQL directly.
func (i Indicator) Column() string {
	return i.String()
}

// Label is the human-readable name used in chart titles and KPI cards.
func (i Indicator) Label() string {
	switch i {
	case IndicatorIncidence:
		return "Malaria Incidence"
	case IndicatorMortality:
		return "Malaria Mortality"
	case IndicatorEffectiveTreatment:
		return "Effective Treatment"
	default:
		return i.String()
	}
}
