package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		label    string
		expected Severity
		ok       bool
	}{
		{"extreme", SeverityExtreme, true},
		{"high", SeverityHigh, true},
		{"considerable", SeverityConsiderable, true},
		{"moderate", SeverityModerate, true},
		{"low", SeverityLow, true},
		{"noRating", SeverityNoRating, true},
		{"NORATING", SeverityNoRating, true},
		{" High ", SeverityHigh, true},
		{"", SeverityNoRating, false},
		{"early-season", SeverityNoRating, false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			s, ok := ParseSeverity(tt.label)
			assert.Equal(t, tt.expected, s)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestAggregateSeverity(t *testing.T) {
	tests := []struct {
		name     string
		day      DangerDay
		expected Severity
		unknown  []string
	}{
		{"treeline worst", DangerDay{Alp: "low", Tln: "high", Btl: "moderate"}, SeverityHigh, nil},
		{"alpine worst", DangerDay{Alp: "extreme", Tln: "high", Btl: "high"}, SeverityExtreme, nil},
		{"below treeline worst", DangerDay{Alp: "low", Tln: "low", Btl: "considerable"}, SeverityConsiderable, nil},
		{"all equal", DangerDay{Alp: "moderate", Tln: "moderate", Btl: "moderate"}, SeverityModerate, nil},
		{"no ratings", DangerDay{Alp: "noRating", Tln: "noRating", Btl: "noRating"}, SeverityNoRating, nil},
		{"unknown defaults to no rating", DangerDay{Alp: "bogus", Tln: "", Btl: "low"}, SeverityLow, []string{"bogus", ""}},
		{"all unknown", DangerDay{Alp: "x", Tln: "y", Btl: "z"}, SeverityNoRating, []string{"x", "y", "z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, unknown := AggregateSeverity(tt.day)
			assert.Equal(t, tt.expected, s)
			assert.Equal(t, tt.unknown, unknown)
		})
	}
}

func TestAggregateSeverity_AtLeastAsSevereAsEveryBand(t *testing.T) {
	labels := []string{"extreme", "high", "considerable", "moderate", "low", "noRating"}
	for _, alp := range labels {
		for _, tln := range labels {
			for _, btl := range labels {
				got, _ := AggregateSeverity(DangerDay{Alp: alp, Tln: tln, Btl: btl})
				for _, band := range []string{alp, tln, btl} {
					s, _ := ParseSeverity(band)
					assert.LessOrEqual(t, int(got), int(s), "%s/%s/%s", alp, tln, btl)
				}
			}
		}
	}
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "considerable", SeverityConsiderable.String())
	assert.Equal(t, "noRating", SeverityNoRating.String())
	assert.Equal(t, "noRating", Severity(42).String())
}

func TestStyleFor(t *testing.T) {
	assert.Equal(t, Style{Name: "4 - High", Fill: "#ED1C24", Stroke: "#ED1C24"}, StyleFor(SeverityHigh))
	assert.Equal(t, Style{Name: "1 - Low", Fill: "#50B848", Stroke: "#50B848"}, StyleFor(SeverityLow))
	assert.Equal(t, StyleFor(SeverityNoRating), StyleFor(Severity(-1)))
}
