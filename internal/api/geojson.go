package api

import (
	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON emits one Point per damage zone, centred on the impact and
// carrying its radius, followed by one Point per nearby city. Map clients
// draw the zones as circles from radius_km.
func toGeoJSON(r *models.SimulationResult) FeatureCollection {
	center := []float64{r.Location.Lon, r.Location.Lat}
	zones := []struct {
		name   string
		radius float64
	}{
		{"crater", r.DamageZones.CraterRadiusKm},
		{"fireball", r.DamageZones.FireballRadiusKm},
		{"shockwave", r.DamageZones.ShockwaveRadiusKm},
		{"thermal_radiation", r.DamageZones.ThermalRadiusKm},
		{"seismic_effect", r.DamageZones.SeismicRadiusKm},
	}

	features := make([]Feature, 0, len(zones)+len(r.NearbyCities))
	for _, z := range zones {
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: center,
			},
			Properties: map[string]any{
				"kind":         "damage_zone",
				"zone":         z.name,
				"radius_km":    round2(z.radius),
				"megatons_tnt": round2(r.Energy.MegatonsTNT),
				"target_type":  r.TargetType,
			},
		})
	}

	for _, city := range r.NearbyCities {
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{city.Lon, city.Lat},
			},
			Properties: map[string]any{
				"kind":        "city",
				"name":        city.Name,
				"place_type":  city.PlaceType,
				"distance_km": city.DistanceKm,
			},
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
