// Package mask implements the circular exclusion-zone registry. Masks
// are cached in memory and refreshed on mutation, copy-on-write per
// spec.md §5 ("The mask cache... [is] read-mostly with copy-on-write
// updates"), in the same style as the teacher's
// services/mvt_storage_memory_service.go in-memory tile cache, but
// swapped atomically instead of mutex-guarded since reads vastly
// outnumber writes here.
package mask

import (
	"math"
	"sync/atomic"

	"hotpot/herr"
)

// Mask is a named circular exclusion zone.
type Mask struct {
	Name     string
	Lat, Lon float64
	RadiusM  float64
}

// Store persists masks; Registry is the read-mostly cache in front of it.
type Store interface {
	AddMask(m Mask) error
	RemoveMask(name string) error
	ListMasks() ([]Mask, error)
}

// Registry caches the mask list and refreshes it on mutation.
type Registry struct {
	store Store
	cache atomic.Pointer[[]Mask]
}

func NewRegistry(store Store) (*Registry, error) {
	r := &Registry{store: store}
	if err := r.refresh(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) refresh() error {
	masks, err := r.store.ListMasks()
	if err != nil {
		return herr.Store("masks", "failed to list masks", err)
	}
	cp := append([]Mask(nil), masks...)
	r.cache.Store(&cp)
	return nil
}

func (r *Registry) Add(name string, lat, lon, radiusM float64) error {
	if name == "" {
		return herr.Parse("name", "mask name must not be empty", nil)
	}
	if radiusM <= 0 {
		return herr.Parse("radius", "mask radius must be positive", nil)
	}
	if err := r.store.AddMask(Mask{Name: name, Lat: lat, Lon: lon, RadiusM: radiusM}); err != nil {
		return herr.Store("masks", "failed to add mask", err)
	}
	return r.refresh()
}

func (r *Registry) Remove(name string) error {
	if err := r.store.RemoveMask(name); err != nil {
		return herr.NotFound("masks", "mask not found: "+name)
	}
	return r.refresh()
}

func (r *Registry) List() []Mask {
	p := r.cache.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Intersecting returns the masks whose circle could touch the given
// geographic bounding box (a coarse degree-based pre-filter; exact
// exclusion is decided per-pixel by Covers).
func (r *Registry) Intersecting(west, south, east, north float64) []Mask {
	var out []Mask
	for _, m := range r.List() {
		// The circle spans its angular radius in latitude; in longitude
		// the span widens with latitude (a full wrap near the poles).
		delta := m.RadiusM / earthRadiusM
		padLat := delta * 180 / math.Pi
		padLon := 180.0
		if s := math.Sin(delta) / math.Cos(m.Lat*math.Pi/180); s < 1 {
			padLon = math.Asin(s) * 180 / math.Pi
		}
		if m.Lon+padLon < west || m.Lon-padLon > east || m.Lat+padLat < south || m.Lat-padLat > north {
			continue
		}
		out = append(out, m)
	}
	return out
}

const metersPerDegree = 111320.0
const earthRadiusM = 6371000.0

// Covers reports whether (lat, lon) lies within m's radius, via
// great-circle distance.
func (m Mask) Covers(lat, lon float64) bool {
	return greatCircleM(m.Lat, m.Lon, lat, lon) <= m.RadiusM
}

func greatCircleM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
