package domain

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ForecastProductType is the only product category the joiner keeps.
const ForecastProductType = "avalancheforecast"

// NoRemarks replaces a missing avalanche summary under RemarksSentinel.
const NoRemarks = "No Remarks"

// GeometryRecord is one forecast area boundary keyed by area id.
type GeometryRecord struct {
	ID       string
	Geometry orb.Geometry
}

// DangerDay holds the three elevation band ratings of one forecast day.
type DangerDay struct {
	Alp string `json:"alp"`
	Tln string `json:"tln"`
	Btl string `json:"btl"`
}

// SummaryDay is the free-text avalanche summary of one forecast day.
type SummaryDay struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

// AttributeRecord is one published product from the forecast feed.
type AttributeRecord struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	PublicName     string `json:"publicName"`
	AreaID         string `json:"areaId"`
	Forecaster     string `json:"forecaster"`
	IssueDateTime  string `json:"issueDateTime"`
	ExpiryDateTime string `json:"expiryDateTime"`
	IsTranslated   bool   `json:"isTranslated"`
	DangerRatings  struct {
		Days []DangerDay `json:"days"`
	} `json:"dangerRatings"`
	AvalancheSummary struct {
		Days []SummaryDay `json:"days"`
	} `json:"avalancheSummary"`
}

// Joined pairs an attribute record with the geometry of its area.
type Joined struct {
	Record   AttributeRecord
	Geometry orb.Geometry
}

// Join keeps forecast products whose area has a geometry, in input order.
// Products of other types and products without a matching area are dropped;
// the dropped records are returned for logging.
func Join(records []AttributeRecord, geoms map[string]GeometryRecord) (joined []Joined, misses []AttributeRecord) {
	for _, rec := range records {
		if rec.Type != ForecastProductType {
			continue
		}
		g, ok := geoms[rec.AreaID]
		if !ok || g.Geometry == nil {
			misses = append(misses, rec)
			continue
		}
		joined = append(joined, Joined{Record: rec, Geometry: g.Geometry})
	}
	return joined, misses
}

// RemarksPolicy decides what happens to a forecast with no summary days.
type RemarksPolicy string

const (
	RemarksDrop     RemarksPolicy = "drop"
	RemarksSentinel RemarksPolicy = "sentinel"
)

// Valid reports whether p is a known policy.
func (p RemarksPolicy) Valid() bool {
	return p == RemarksDrop || p == RemarksSentinel
}

// DropReason explains why a joined forecast produced no features.
type DropReason string

const (
	DropNoRatings DropReason = "no_ratings"
	DropNoRemarks DropReason = "no_remarks"
)

// ForecastFeatureID is the deterministic base id of a forecast area.
func ForecastFeatureID(areaID string) string {
	return "caic-" + areaID
}

// ForecastProperties builds the property bag of a joined forecast. It returns
// a non-empty DropReason when the record cannot be emitted; unknown lists any
// band labels outside the danger scale.
func ForecastProperties(j Joined, policy RemarksPolicy) (props geojson.Properties, unknown []string, reason DropReason) {
	rec := j.Record
	if len(rec.DangerRatings.Days) == 0 {
		return nil, nil, DropNoRatings
	}

	// A blank first summary counts as no summary.
	remarks := ""
	if len(rec.AvalancheSummary.Days) > 0 {
		remarks = strings.TrimSpace(rec.AvalancheSummary.Days[0].Content)
	}
	if remarks == "" {
		if policy != RemarksSentinel {
			return nil, nil, DropNoRemarks
		}
		remarks = NoRemarks
	}

	day := rec.DangerRatings.Days[0]
	rating, unknown := AggregateSeverity(day)
	style := StyleFor(rating)

	props = geojson.Properties{
		"callsign":       rec.Title,
		"forecaster":     rec.Forecaster,
		"issueDateTime":  rec.IssueDateTime,
		"expiryDateTime": rec.ExpiryDateTime,
		"isTranslated":   rec.IsTranslated,
		"remarks":        remarks,
		"rating":         rating.String(),
		"ratingName":     style.Name,
		"ratingAbove":    day.Alp,
		"ratingNear":     day.Tln,
		"ratingBelow":    day.Btl,
		"fill":           style.Fill,
		"fill-opacity":   0.5,
		"stroke":         style.Stroke,
		"stroke-width":   1,
		"stroke-opacity": 1,
		"metadata": map[string]any{
			"source":     "caic",
			"areaId":     rec.AreaID,
			"forecastId": rec.ID,
			"publicName": rec.PublicName,
		},
	}
	return props, unknown, ""
}
