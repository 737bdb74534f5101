package domain

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// TrackerSourceTag prefixes every tracked position id.
const TrackerSourceTag = "inreach"

// TrackedEntity describes one position-reporting feed.
type TrackedEntity struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name,omitempty"`
	Credential string `yaml:"credential,omitempty"`
}

// Placemark is one well-formed point report from a feed.
type Placemark struct {
	Name  string
	Time  time.Time
	Point orb.Point
}

// Feed is a parsed position-report document.
type Feed struct {
	Name       string
	Placemarks []Placemark
	Skipped    int // placemarks without a point or a timestamp
}

type kmlRoot struct {
	XMLName  xml.Name     `xml:"kml"`
	Document *kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name    string      `xml:"name"`
	Folders []kmlFolder `xml:"Folder"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name      string `xml:"name"`
	TimeStamp *struct {
		When string `xml:"when"`
	} `xml:"TimeStamp"`
	Point *struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
}

// ParseFeed decodes a KML position feed. A document without a <Document>
// container fails with ErrMissingDocument; a Document without any Folder is an
// empty feed. Placemarks lacking a point or timestamp are counted in Skipped.
func ParseFeed(r io.Reader) (Feed, error) {
	var root kmlRoot
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return Feed{}, ErrMissingDocument
		}
		return Feed{}, fmt.Errorf("parse feed: %w", err)
	}
	if root.Document == nil {
		return Feed{}, ErrMissingDocument
	}

	feed := Feed{Name: strings.TrimSpace(root.Document.Name)}
	for _, folder := range root.Document.Folders {
		for _, pm := range folder.Placemarks {
			p, ok := parsePlacemark(pm)
			if !ok {
				feed.Skipped++
				continue
			}
			if p.Name == "" {
				p.Name = strings.TrimSpace(folder.Name)
			}
			feed.Placemarks = append(feed.Placemarks, p)
		}
	}
	return feed, nil
}

func parsePlacemark(pm kmlPlacemark) (Placemark, bool) {
	if pm.Point == nil || pm.TimeStamp == nil {
		return Placemark{}, false
	}
	when, err := time.Parse(time.RFC3339, strings.TrimSpace(pm.TimeStamp.When))
	if err != nil {
		return Placemark{}, false
	}
	pt, ok := parseCoordinates(pm.Point.Coordinates)
	if !ok {
		return Placemark{}, false
	}

	return Placemark{
		Name:  strings.TrimSpace(pm.Name),
		Time:  when.UTC(),
		Point: pt,
	}, true
}

// parseCoordinates reads a single KML "lon,lat[,alt]" tuple.
func parseCoordinates(s string) (orb.Point, bool) {
	fields := strings.Split(strings.TrimSpace(s), ",")
	if len(fields) < 2 {
		return orb.Point{}, false
	}
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if errLon != nil || errLat != nil {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}

// TrackedPosition is the latest known location of one callsign.
type TrackedPosition struct {
	ID       string
	Callsign string
	Time     time.Time
	Start    time.Time
	Point    orb.Point
}

// TrackedPositionID builds the stable id of a callsign.
func TrackedPositionID(callsign string) string {
	return TrackerSourceTag + "-" + callsign
}

// Positions converts the feed's placemarks into tracked positions. The
// entity's display name, when set, is the callsign of every position.
func (f Feed) Positions(entity TrackedEntity) []TrackedPosition {
	positions := make([]TrackedPosition, 0, len(f.Placemarks))
	for _, p := range f.Placemarks {
		callsign := entity.Name
		if callsign == "" {
			callsign = p.Name
		}
		if callsign == "" {
			callsign = entity.ID
		}
		positions = append(positions, TrackedPosition{
			ID:       TrackedPositionID(callsign),
			Callsign: callsign,
			Time:     p.Time,
			Start:    p.Time,
			Point:    p.Point,
		})
	}
	return positions
}

// Feature renders the position as a GeoJSON point feature.
func (p TrackedPosition) Feature() *geojson.Feature {
	f := geojson.NewFeature(p.Point)
	f.ID = p.ID
	f.Properties = geojson.Properties{
		"callsign": p.Callsign,
		"time":     p.Time.Format(time.RFC3339),
		"start":    p.Start.Format(time.RFC3339),
	}
	return f
}

// Deduplicator keeps the most recent position per id. The zero value is ready
// to use and is not safe for concurrent use.
type Deduplicator struct {
	index     map[string]int
	positions []TrackedPosition
}

// Add records p, replacing an earlier observation of the same id only when p
// is strictly newer. Ties keep the first observation seen.
func (d *Deduplicator) Add(p TrackedPosition) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	i, ok := d.index[p.ID]
	if !ok {
		d.index[p.ID] = len(d.positions)
		d.positions = append(d.positions, p)
		return
	}
	if p.Time.After(d.positions[i].Time) {
		d.positions[i] = p
	}
}

// Positions returns the survivors in first-insertion order.
func (d *Deduplicator) Positions() []TrackedPosition {
	out := make([]TrackedPosition, len(d.positions))
	copy(out, d.positions)
	return out
}

// Len reports the number of distinct ids seen.
func (d *Deduplicator) Len() int { return len(d.positions) }
