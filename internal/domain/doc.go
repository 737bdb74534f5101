// Package domain models avalanche forecast areas and satellite tracker
// positions, and turns both into single-part GeoJSON features.
//
// # Forecast Source
//
// Forecasts come from the Colorado Avalanche Information Center (CAIC) API
// proxy at https://avalanche.state.co.us/api-proxy/avid. Two products are read
// per run:
//
//	/products/all/area?productType=avalancheforecast  →  area boundaries
//	/products/all                                      →  published products
//
// The area feed is a GeoJSON FeatureCollection whose feature ids are the area
// identifiers. Ids may be JSON strings or numbers and are compared as strings.
// The product feed is a JSON array mixing several product types; only
// "avalancheforecast" products are joined, by their areaId.
//
// # Danger Ratings
//
// Each forecast carries per-day ratings for three elevation bands:
//
//	alp  alpine (above treeline)
//	tln  near treeline
//	btl  below treeline
//
// Labels follow the North American Public Avalanche Danger Scale, worst first:
//
//	extreme > high > considerable > moderate > low > noRating
//
// The overall rating of a forecast is the worst of the three bands on the
// first day. Labels outside the scale are treated as noRating and reported to
// the caller; they never fail a record.
//
// # Remarks
//
// The first day's avalanche summary becomes the feature's remarks. Forecasts
// with no summary days are dropped under [RemarksDrop] and get the
// [NoRemarks] placeholder under [RemarksSentinel].
//
// # Decomposition
//
// Output features are always single-part. Multi-part area geometries are
// split by [Decompose] into one feature per part, "<id>-<index>", each with
// its own deep copy of the properties.
//
// # Tracker Feeds
//
// Tracker positions come from Garmin inReach MapShare KML feeds, one feed per
// tracked entity:
//
//	<kml><Document><Folder><Placemark>
//	  <name>…</name>
//	  <TimeStamp><when>2024-01-02T15:04:05Z</when></TimeStamp>
//	  <Point><coordinates>lon,lat,alt</coordinates></Point>
//	</Placemark>…</Folder></Document></kml>
//
// A feed also carries a trailing LineString placemark for the track, which
// has no timestamp and is skipped. Positions are keyed "inreach-<callsign>"
// and [Deduplicator] keeps only the most recent one per key.
package domain
