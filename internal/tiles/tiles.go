// Package tiles converts coordinates to slippy map tile numbers.
// See https://wiki.openstreetmap.org/wiki/Slippy_map_tilenames.
package tiles

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/alexjbarnes/activity-sync/internal/models"
)

// Zoom is a supported map zoom level.
type Zoom int

const (
	Zoom14 Zoom = 14
	Zoom17 Zoom = 17
)

// Zooms lists every zoom level tiles are stored for.
var Zooms = []Zoom{Zoom14, Zoom17}

// ParseZoom accepts "14" or "17".
func ParseZoom(s string) (Zoom, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("zoom %q is not a number", s)
	}

	z := Zoom(n)
	if !slices.Contains(Zooms, z) {
		return 0, fmt.Errorf("unsupported zoom level %d", n)
	}

	return z, nil
}

// Tile is a tile number at some zoom level.
type Tile struct {
	X int64
	Y int64
}

// MarshalJSON encodes the tile as [x, y].
func (t Tile) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{t.X, t.Y})
}

// FromCoords returns the tile containing lat/lon at zoom z.
func FromCoords(lat, lon float64, z Zoom) Tile {
	n := float64(int64(1) << z)
	latRad := lat * math.Pi / 180

	x := math.Floor((lon + 180) / 360 * n)
	y := math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n)

	return Tile{X: int64(x), Y: int64(y)}
}

// FromStream returns the distinct tiles a track passes through, sorted by
// x then y.
func FromStream(s *models.Stream, z Zoom) []Tile {
	seen := make(map[Tile]struct{}, len(s.LatLng))
	out := make([]Tile, 0)

	for _, p := range s.LatLng {
		t := FromCoords(p[0], p[1], z)
		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}
		out = append(out, t)
	}

	slices.SortFunc(out, func(a, b Tile) int {
		if a.X != b.X {
			return int(a.X - b.X)
		}

		return int(a.Y - b.Y)
	})

	return out
}

// Bounds is an inclusive tile rectangle.
type Bounds struct {
	X1, Y1, X2, Y2 int64
}

// ParseBounds parses "x1,y1,x2,y2".
func ParseBounds(s string) (*Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bounds %q: need four positions", s)
	}

	var v [4]int64

	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bounds %q: positions not numeric", s)
		}

		v[i] = n
	}

	return &Bounds{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}
