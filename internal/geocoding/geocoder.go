// Package geocoding resolves between place names and coordinates using
// Distance Matrix AI for address lookups and Overpass for nearby places.
package geocoding

import (
	"context"

	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

// Place is a resolved location. The zero value means "no match".
type Place struct {
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	FormattedAddress string  `json:"formatted_address"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	Country          string  `json:"country,omitempty"`
	CountryCode      string  `json:"country_code,omitempty"`
	IsRemote         bool    `json:"is_remote"`
	IsOcean          bool    `json:"is_ocean"`
	OceanName        string  `json:"ocean_name,omitempty"`
	NearestCity      string  `json:"nearest_city,omitempty"`
	// NearestCityDistanceKm is only set for remote or ocean places.
	NearestCityDistanceKm float64 `json:"nearest_city_distance_km,omitempty"`
}

func (p Place) Found() bool {
	return p.FormattedAddress != ""
}

// Geocoder is the collaborator the simulation core consumes.
type Geocoder interface {
	// Forward converts a free-form address or city name to coordinates.
	Forward(ctx context.Context, address string) (Place, error)

	// Reverse describes the place at the given coordinates.
	Reverse(ctx context.Context, lat, lon float64) (Place, error)

	// CitiesInRadius lists populated places around a point, nearest first.
	CitiesInRadius(ctx context.Context, lat, lon, radiusKm float64) ([]models.City, error)
}
