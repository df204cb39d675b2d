// Package geo answers the "what near me still needs checking" query.
package geo

import (
	"context"
	"math"
	"sort"

	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/config"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
)

const earthRadiusKm = 6371.0

// Store is the storage subset the query reads.
type Store interface {
	ComplaintsInBox(ctx context.Context, box storage.BoundingBox, maxVerifications int) ([]models.Complaint, error)
}

// NearbyComplaint is a complaint with its distance from the query point.
type NearbyComplaint struct {
	models.Complaint
	DistanceKm float64 `json:"distanceKm"`
}

type Finder struct {
	store Store
}

func NewFinder(store Store) *Finder {
	return &Finder{store: store}
}

// Box is the flat-earth square of half-side radiusKm around (lat, lng).
func Box(lat, lng, radiusKm float64) storage.BoundingBox {
	d := radiusKm / config.KmPerDegree
	return storage.BoundingBox{
		MinLat: lat - d,
		MaxLat: lat + d,
		MinLng: lng - d,
		MaxLng: lng + d,
	}
}

// Distance is the great-circle distance in kilometres.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// NearbyUnverified returns complaints inside the bounding box of radiusKm
// that have at most two votes, nearest first. The box is the contract;
// corners beyond radiusKm are kept.
func (f *Finder) NearbyUnverified(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyComplaint, error) {
	if !(lat >= -90 && lat <= 90) || !(lng >= -180 && lng <= 180) {
		return nil, apperr.Validation("coordinates out of range", map[string]interface{}{"lat": lat, "lng": lng})
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return nil, apperr.Validation("radius must be a finite number", map[string]interface{}{"radius": radiusKm})
	}
	if radiusKm <= 0 {
		radiusKm = config.DefaultNearbyRadiusKm
	}
	if radiusKm > config.MaxNearbyRadiusKm {
		radiusKm = config.MaxNearbyRadiusKm
	}

	found, err := f.store.ComplaintsInBox(ctx, Box(lat, lng, radiusKm), config.NearbyMaxVerifications)
	if err != nil {
		return nil, err
	}
	out := make([]NearbyComplaint, 0, len(found))
	for _, c := range found {
		out = append(out, NearbyComplaint{
			Complaint:  c,
			DistanceKm: Distance(lat, lng, c.Latitude, c.Longitude),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}
