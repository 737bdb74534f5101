package domain

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseID = "caic-1"

func testProps() geojson.Properties {
	return geojson.Properties{
		"callsign": "Vail & Summit County",
		"rating":   "high",
		"metadata": map[string]any{"areaId": "1"},
	}
}

func TestDecompose_SinglePart(t *testing.T) {
	tests := []struct {
		name     string
		geometry orb.Geometry
		wantType string
	}{
		{"point", orb.Point{-105.9, 39.6}, "Point"},
		{"line string", orb.LineString{{0, 0}, {1, 1}}, "LineString"},
		{"polygon", testSquare, "Polygon"},
		{"ring", testSquare[0], "Polygon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := Decompose(testBaseID, testProps(), tt.geometry)
			require.Len(t, features, 1)
			assert.Equal(t, testBaseID, features[0].ID)
			assert.Equal(t, tt.wantType, features[0].Geometry.GeoJSONType())
			assert.Equal(t, "high", features[0].Properties["rating"])
		})
	}
}

func TestDecompose_MultiPart(t *testing.T) {
	second := orb.Polygon{orb.Ring{{2, 2}, {3, 2}, {3, 3}, {2, 2}}}
	third := orb.Polygon{orb.Ring{{5, 5}, {6, 5}, {6, 6}, {5, 5}}}

	tests := []struct {
		name     string
		geometry orb.Geometry
		wantType string
		parts    int
	}{
		{"multi polygon", orb.MultiPolygon{testSquare, second, third}, "Polygon", 3},
		{"multi line string", orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}, "LineString", 2},
		{"multi point", orb.MultiPoint{{0, 0}, {1, 1}, {2, 2}, {3, 3}}, "Point", 4},
		{"single member multi polygon", orb.MultiPolygon{testSquare}, "Polygon", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := Decompose(testBaseID, testProps(), tt.geometry)
			require.Len(t, features, tt.parts)
			for i, f := range features {
				assert.Equal(t, fmt.Sprintf("%s-%d", testBaseID, i), f.ID)
				assert.Equal(t, tt.wantType, f.Geometry.GeoJSONType())
				assert.Equal(t, "Feature", f.Type)
			}
		})
	}
}

func TestDecompose_PartCoordinates(t *testing.T) {
	second := orb.Polygon{orb.Ring{{2, 2}, {3, 2}, {3, 3}, {2, 2}}}
	features := Decompose(testBaseID, testProps(), orb.MultiPolygon{testSquare, second})

	require.Len(t, features, 2)
	assert.Equal(t, testSquare, features[0].Geometry)
	assert.Equal(t, second, features[1].Geometry)
}

func TestDecompose_CollectionFlattened(t *testing.T) {
	g := orb.Collection{
		orb.Point{1, 1},
		orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}},
		orb.Collection{testSquare},
	}

	features := Decompose(testBaseID, testProps(), g)
	require.Len(t, features, 4)

	types := make([]string, 0, len(features))
	for i, f := range features {
		assert.Equal(t, fmt.Sprintf("%s-%d", testBaseID, i), f.ID)
		types = append(types, f.Geometry.GeoJSONType())
	}
	assert.Equal(t, []string{"Point", "LineString", "LineString", "Polygon"}, types)
}

func TestDecompose_PropertiesAreIndependentCopies(t *testing.T) {
	props := testProps()
	features := Decompose(testBaseID, props, orb.MultiPoint{{0, 0}, {1, 1}})
	require.Len(t, features, 2)

	features[0].Properties["rating"] = "low"
	features[0].Properties["metadata"].(map[string]any)["areaId"] = "mutated"

	assert.Equal(t, "high", features[1].Properties["rating"])
	assert.Equal(t, "1", features[1].Properties["metadata"].(map[string]any)["areaId"])
	assert.Equal(t, "high", props["rating"])
	assert.Equal(t, "1", props["metadata"].(map[string]any)["areaId"])
}

func TestDecompose_EmptyInputs(t *testing.T) {
	assert.Empty(t, Decompose(testBaseID, testProps(), nil))
	assert.Empty(t, Decompose(testBaseID, testProps(), orb.MultiPolygon{}))

	features := Decompose(testBaseID, nil, orb.Point{0, 0})
	require.Len(t, features, 1)
	assert.NotNil(t, features[0].Properties)
}

func TestDecompose_Deterministic(t *testing.T) {
	g := orb.MultiPolygon{testSquare, testSquare}
	first := Decompose(testBaseID, testProps(), g)
	second := Decompose(testBaseID, testProps(), g)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}
