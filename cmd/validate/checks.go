package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-etl/internal/config"
	"github.com/couchcryptid/hazard-etl/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	forecastRequired = []string{
		"callsign", "forecaster", "issueDateTime", "expiryDateTime", "remarks",
		"rating", "ratingName", "ratingAbove", "ratingNear", "ratingBelow",
		"fill", "stroke", "metadata",
	}
	trackerRequired = []string{"callsign", "time", "start"}
)

// inferVariant guesses the producing variant from the first feature id.
func inferVariant(fc *geojson.FeatureCollection) string {
	for _, f := range fc.Features {
		id := fmt.Sprint(f.ID)
		switch {
		case strings.HasPrefix(id, "caic-"):
			return config.VariantForecast
		case strings.HasPrefix(id, domain.TrackerSourceTag+"-"):
			return config.VariantTracker
		}
	}
	return ""
}

// ── Phase 1: Geometry ──
// Every feature carries exactly one single-part geometry.

func validateGeometry(fc *geojson.FeatureCollection) *phase {
	p := &phase{name: "Phase 1: Single-part geometry"}
	for i, f := range fc.Features {
		if f.Geometry == nil {
			p.errorf("feature %d (%v): missing geometry", i, f.ID)
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.MultiPoint, orb.MultiLineString, orb.MultiPolygon, orb.Collection:
			p.errorf("feature %d (%v): multi-part geometry %s", i, f.ID, g.GeoJSONType())
		case orb.Polygon:
			if len(g) == 0 || len(g[0]) < 4 {
				p.errorf("feature %d (%v): polygon outer ring has fewer than 4 positions", i, f.ID)
			}
		}
	}
	return p
}

// ── Phase 2: Identity ──
// Ids are present, unique, and carry the variant's prefix.

func validateIDs(fc *geojson.FeatureCollection, variant string) *phase {
	p := &phase{name: "Phase 2: Unique feature ids"}

	prefix := "caic-"
	if variant == config.VariantTracker {
		prefix = domain.TrackerSourceTag + "-"
	}

	seen := make(map[string]int, len(fc.Features))
	for i, f := range fc.Features {
		if f.ID == nil {
			p.errorf("feature %d: missing id", i)
			continue
		}
		id := fmt.Sprint(f.ID)
		if !strings.HasPrefix(id, prefix) {
			p.errorf("feature %d: id %q lacks prefix %q", i, id, prefix)
		}
		if first, dup := seen[id]; dup {
			p.errorf("feature %d: id %q already used by feature %d", i, id, first)
			continue
		}
		seen[id] = i
	}
	return p
}

// ── Phase 3: Forecast properties ──
// Required keys are present and the rating matches the worst band.

func validateForecastProperties(fc *geojson.FeatureCollection) *phase {
	p := &phase{name: "Phase 3: Forecast properties"}
	for i, f := range fc.Features {
		if !checkRequired(p, i, f, forecastRequired) {
			continue
		}

		day := domain.DangerDay{
			Alp: stringProp(f, "ratingAbove"),
			Tln: stringProp(f, "ratingNear"),
			Btl: stringProp(f, "ratingBelow"),
		}
		want, _ := domain.AggregateSeverity(day)
		got := stringProp(f, "rating")
		if got != want.String() {
			p.errorf("feature %d (%v): rating %q, worst band is %q", i, f.ID, got, want)
		}

		style := domain.StyleFor(want)
		if fill := stringProp(f, "fill"); fill != style.Fill {
			p.errorf("feature %d (%v): fill %q, want %q for %s", i, f.ID, fill, style.Fill, want)
		}
		if remarks := stringProp(f, "remarks"); remarks == "" {
			p.errorf("feature %d (%v): empty remarks", i, f.ID)
		}
	}
	return p
}

// ── Phase 3: Tracker properties ──
// Required keys are present, timestamps parse, and positions are on Earth.

func validateTrackerProperties(fc *geojson.FeatureCollection) *phase {
	p := &phase{name: "Phase 3: Tracker properties"}
	for i, f := range fc.Features {
		if !checkRequired(p, i, f, trackerRequired) {
			continue
		}

		for _, key := range []string{"time", "start"} {
			if _, err := time.Parse(time.RFC3339, stringProp(f, key)); err != nil {
				p.errorf("feature %d (%v): %s is not RFC 3339: %v", i, f.ID, key, err)
			}
		}

		if f.Geometry == nil {
			continue
		}
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			p.errorf("feature %d (%v): geometry is %s, want Point", i, f.ID, f.Geometry.GeoJSONType())
			continue
		}
		if pt.Lon() < -180 || pt.Lon() > 180 || pt.Lat() < -90 || pt.Lat() > 90 {
			p.errorf("feature %d (%v): position %v out of range", i, f.ID, pt)
		}
	}
	return p
}

func checkRequired(p *phase, i int, f *geojson.Feature, keys []string) bool {
	ok := true
	for _, key := range keys {
		if _, present := f.Properties[key]; !present {
			p.errorf("feature %d (%v): missing property %q", i, f.ID, key)
			ok = false
		}
	}
	return ok
}

// stringProp returns the property as a string, or "" when absent or of another
// type.
func stringProp(f *geojson.Feature, key string) string {
	s, _ := f.Properties[key].(string)
	return s
}
