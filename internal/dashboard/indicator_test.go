package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndicator(t *testing.T) {
	tests := []struct {
		input    string
		expected Indicator
		wantErr  bool
	}{
		{"incidence", IndicatorIncidence, false},
		{"", IndicatorIncidence, false}, // default
		{"mortality", IndicatorMortality, false},
		{"effective_treatment", IndicatorEffectiveTreatment, false},
		{"Incidence", 0, true}, // request strings are exact
		{"deaths", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIndicator(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIndicator_RoundTrip(t *testing.T) {
	for _, ind := range Indicators() {
		t.Run(ind.String(), func(t *testing.T) {
			parsed, err := ParseIndicator(ind.String())
			require.NoError(t, err)
			assert.Equal(t, ind, parsed)
			assert.Equal(t, ind.String(), ind.Column())
			assert.NotEmpty(t, ind.Label())
		})
	}
}
