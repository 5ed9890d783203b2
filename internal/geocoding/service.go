package geocoding

import (
	"context"
	"log/slog"

	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

// Service combines Distance Matrix lookups with the Overpass fallback for
// remote and ocean points. Errors are wrapped as models.ErrUpstreamUnavailable.
type Service struct {
	dm       *DistanceMatrixClient
	overpass *OverpassClient
	logger   *slog.Logger
}

func NewService(dm *DistanceMatrixClient, overpass *OverpassClient, logger *slog.Logger) *Service {
	return &Service{
		dm:       dm,
		overpass: overpass,
		logger:   logger,
	}
}

func (s *Service) Forward(ctx context.Context, address string) (Place, error) {
	p, err := s.dm.Forward(ctx, address)
	if err != nil {
		return Place{}, models.Upstream("geocoding", err)
	}
	return p, nil
}

func (s *Service) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	p, err := s.dm.Reverse(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("reverse geocoding failed, falling back to overpass", "lat", lat, "lon", lon, "error", err)
	} else if p.Found() {
		return p, nil
	}

	p, err = s.overpass.NearestPlace(ctx, lat, lon)
	if err != nil {
		return Place{}, models.Upstream("overpass", err)
	}
	return p, nil
}

func (s *Service) CitiesInRadius(ctx context.Context, lat, lon, radiusKm float64) ([]models.City, error) {
	cities, err := s.overpass.CitiesInRadius(ctx, lat, lon, radiusKm)
	if err != nil {
		return nil, models.Upstream("overpass", err)
	}
	return cities, nil
}
