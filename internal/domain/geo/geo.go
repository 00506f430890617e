// Package geo parses and formats the free-text "lat, lng" site coordinate
// and models the pick-on-a-map dialog that writes it.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalid is returned for any string that is not exactly two numeric
// tokens separated by a comma, or whose values fall outside latitude
// [-90, 90] and longitude [-180, 180].
var ErrInvalid = errors.New("geo: no valid coordinates")

// Point is a WGS84 position.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultCenter is where the map opens when the field holds nothing usable.
var DefaultCenter = Point{Lat: 31.5, Lng: 34.75}

const (
	DefaultZoom = 12
	mapsZoom    = 15
)

// Parse reads "31.5, 34.75". Whitespace around each token is ignored.
func Parse(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, ErrInvalid
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, ErrInvalid
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, ErrInvalid
	}
	p := Point{Lat: lat, Lng: lng}
	if !p.valid() {
		return Point{}, ErrInvalid
	}
	return p, nil
}

// valid rejects NaN and infinities along with out-of-range values;
// the range comparisons are false for NaN.
func (p Point) valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsInf(p.Lat, 0) && !math.IsInf(p.Lng, 0)
}

// Format writes p with six decimal places.
func Format(p Point) string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lng)
}

// HasCoordinates reports whether s parses. It drives the visibility of the
// "open in map" link.
func HasCoordinates(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// MapsURL returns an external Google Maps link for s.
func MapsURL(s string) (string, error) {
	p, err := Parse(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s&z=%d",
		strconv.FormatFloat(p.Lat, 'f', -1, 64),
		strconv.FormatFloat(p.Lng, 'f', -1, 64),
		mapsZoom), nil
}
