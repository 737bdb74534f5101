package domain

import "strings"

// Severity is a North American avalanche danger level. Values are ordered
// worst first, so a lower value is more severe.
type Severity int

const (
	SeverityExtreme Severity = iota
	SeverityHigh
	SeverityConsiderable
	SeverityModerate
	SeverityLow
	SeverityNoRating
)

// severityLabels holds the wire labels in rank order.
var severityLabels = [...]string{
	SeverityExtreme:      "extreme",
	SeverityHigh:         "high",
	SeverityConsiderable: "considerable",
	SeverityModerate:     "moderate",
	SeverityLow:          "low",
	SeverityNoRating:     "noRating",
}

func (s Severity) String() string {
	if s < SeverityExtreme || s > SeverityNoRating {
		return severityLabels[SeverityNoRating]
	}
	return severityLabels[s]
}

// ParseSeverity maps a band label to its Severity, ignoring case. The boolean
// is false for labels outside the scale; the returned Severity is then
// SeverityNoRating.
func ParseSeverity(label string) (Severity, bool) {
	label = strings.TrimSpace(label)
	for i, l := range severityLabels {
		if strings.EqualFold(l, label) {
			return Severity(i), true
		}
	}
	return SeverityNoRating, false
}

// AggregateSeverity returns the worst rating across the alpine, treeline and
// below-treeline bands. Unrecognized band labels count as no rating; the
// second return lists them so callers can report bad upstream data.
func AggregateSeverity(day DangerDay) (Severity, []string) {
	worst := SeverityNoRating
	var unknown []string
	for _, label := range []string{day.Alp, day.Tln, day.Btl} {
		s, ok := ParseSeverity(label)
		if !ok {
			unknown = append(unknown, label)
			continue
		}
		if s < worst {
			worst = s
		}
	}
	return worst, unknown
}

// Style is the map presentation for a danger level.
type Style struct {
	Name   string
	Fill   string
	Stroke string
}

var severityColors = map[Severity]string{
	SeverityExtreme:      "#231F20",
	SeverityHigh:         "#ED1C24",
	SeverityConsiderable: "#F7941E",
	SeverityModerate:     "#FFF200",
	SeverityLow:          "#50B848",
	SeverityNoRating:     "#A7A9AC",
}

var severityNames = map[Severity]string{
	SeverityExtreme:      "5 - Extreme",
	SeverityHigh:         "4 - High",
	SeverityConsiderable: "3 - Considerable",
	SeverityModerate:     "2 - Moderate",
	SeverityLow:          "1 - Low",
	SeverityNoRating:     "No Rating",
}

// StyleFor looks up the fill/stroke colour and display name of s.
func StyleFor(s Severity) Style {
	color, ok := severityColors[s]
	if !ok {
		s = SeverityNoRating
		color = severityColors[s]
	}
	return Style{Name: severityNames[s], Fill: color, Stroke: color}
}
