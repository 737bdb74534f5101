package domain

import (
	"strconv"

	"github.com/mohae/deepcopy"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Decompose renders g as one or more single-part features. A single-part
// geometry yields one feature with id baseID. A multi-part geometry yields one
// feature per part with id "baseID-i"; collections are flattened depth first
// and every leaf takes the next index. Each feature owns a deep copy of props.
func Decompose(baseID string, props geojson.Properties, g orb.Geometry) []*geojson.Feature {
	if g == nil {
		return nil
	}

	parts := singleParts(g, nil)
	if !isMulti(g) {
		return []*geojson.Feature{newFeature(baseID, props, parts[0])}
	}

	features := make([]*geojson.Feature, 0, len(parts))
	for i, part := range parts {
		features = append(features, newFeature(baseID+"-"+strconv.Itoa(i), props, part))
	}
	return features
}

func isMulti(g orb.Geometry) bool {
	switch g.(type) {
	case orb.MultiPoint, orb.MultiLineString, orb.MultiPolygon, orb.Collection:
		return true
	default:
		return false
	}
}

// singleParts appends the single-part constituents of g to dst.
func singleParts(g orb.Geometry, dst []orb.Geometry) []orb.Geometry {
	switch g := g.(type) {
	case orb.MultiPoint:
		for _, p := range g {
			dst = append(dst, p)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			dst = append(dst, ls)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			dst = append(dst, p)
		}
	case orb.Collection:
		for _, child := range g {
			dst = singleParts(child, dst)
		}
	case orb.Ring:
		dst = append(dst, orb.Polygon{g})
	case orb.Bound:
		dst = append(dst, g.ToPolygon())
	default:
		dst = append(dst, g)
	}
	return dst
}

func newFeature(id string, props geojson.Properties, g orb.Geometry) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.ID = id
	f.Properties = copyProperties(props)
	return f
}

func copyProperties(props geojson.Properties) geojson.Properties {
	if len(props) == 0 {
		return geojson.Properties{}
	}
	return deepcopy.Copy(props).(geojson.Properties)
}
