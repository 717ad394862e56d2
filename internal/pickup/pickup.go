// Package pickup is the directory of lockers and safe zones the location
// picker offers to the user.
package pickup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Kind distinguishes unattended lockers from staffed safe zones
type Kind string

const (
	KindLocker   Kind = "locker"
	KindSafeZone Kind = "safe_zone"
)

// ParseKind validates a raw kind string
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLocker, KindSafeZone:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown pickup kind %q", s)
}

var ErrNotFound = errors.New("pickup point not found")

// Point is a physical place where an item can change hands
type Point struct {
	ID     string  `json:"id" yaml:"id"`
	Kind   Kind    `json:"kind" yaml:"kind"`
	Name   string  `json:"name" yaml:"name"`
	Street string  `json:"street" yaml:"street"`
	Lon    float64 `json:"lon" yaml:"lon"`
	Lat    float64 `json:"lat" yaml:"lat"`
	// Dist is the distance in meters from the search center; only set by Nearby
	Dist float64 `json:"dist,omitempty" yaml:"-"`
}

// Description is the human-readable text the picker hands back to the
// workflow, e.g. "Via Roma 4 — Locker B12".
func (p Point) Description() string {
	if p.Street == "" {
		return p.Name
	}
	return p.Street + " — " + p.Name
}

func (p Point) validate() error {
	if p.ID == "" {
		return errors.New("pickup point: empty id")
	}
	if _, err := ParseKind(string(p.Kind)); err != nil {
		return err
	}
	if p.Lon < -180 || p.Lon > 180 || p.Lat < -85.05112878 || p.Lat > 85.05112878 {
		return fmt.Errorf("pickup point %s: invalid coords lon=%.6f lat=%.6f", p.ID, p.Lon, p.Lat)
	}
	return nil
}

// Directory looks up pickup points
type Directory interface {
	Add(ctx context.Context, p Point) error
	Get(ctx context.Context, id string) (Point, error)
	// Nearby returns points of the kind within radiusMeters, closest first
	Nearby(ctx context.Context, kind Kind, lon, lat, radiusMeters float64, limit int) ([]Point, error)
}

// MemoryDirectory is an in-process Directory
type MemoryDirectory struct {
	mu     sync.RWMutex
	points map[string]Point
}

func NewMemoryDirectory(points ...Point) (*MemoryDirectory, error) {
	d := &MemoryDirectory{points: make(map[string]Point)}
	for _, p := range points {
		if err := d.Add(context.Background(), p); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *MemoryDirectory) Add(_ context.Context, p Point) error {
	if err := p.validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.points[p.ID] = p
	return nil
}

func (d *MemoryDirectory) Get(_ context.Context, id string) (Point, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.points[id]
	if !ok {
		return Point{}, ErrNotFound
	}
	return p, nil
}

func (d *MemoryDirectory) Nearby(_ context.Context, kind Kind, lon, lat, radiusMeters float64, limit int) ([]Point, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Point
	for _, p := range d.points {
		if p.Kind != kind {
			continue
		}
		dist := Distance(lon, lat, p.Lon, p.Lat)
		if dist > radiusMeters {
			continue
		}
		p.Dist = dist
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dist < out[j].Dist })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

const earthRadiusMeters = 6372797.560856

// Distance is the haversine distance in meters between two coordinates
func Distance(lon1, lat1, lon2, lat2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
