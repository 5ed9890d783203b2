package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mr1hm/go-asteroid-impact/internal/metrics"
	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

const (
	upstreamOverpass = "overpass"

	maxCitiesInRadius = 50
)

// Nearest-city search widens through these radii before giving up.
var nearestCityRadiiKm = []float64{50, 100, 200, 500}

// OverpassClient queries OpenStreetMap place nodes through the Overpass API.
type OverpassClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewOverpassClient(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *OverpassClient {
	return &OverpassClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: m,
		logger:  logger,
	}
}

// NearestPlace finds the closest city or town. Points with nothing within
// 500 km, or whose nearest city is farther than remoteCityKm, are reported
// as ocean.
func (c *OverpassClient) NearestPlace(ctx context.Context, lat, lon float64) (Place, error) {
	for _, radius := range nearestCityRadiiKm {
		elements, err := c.query(ctx, placeQuery(lat, lon, radius, 15, []string{"city", "town"}, 1), "nearest")
		if err != nil {
			return Place{}, err
		}
		if len(elements) == 0 {
			continue
		}

		nearest := elements[0]
		name := nearest.tag("name", "Unknown")
		distance := HaversineKm(lat, lon, nearest.Lat, nearest.Lon)
		if distance > remoteCityKm {
			return oceanPlace(lat, lon, name, round2(distance)), nil
		}

		return Place{
			Lat:                   lat,
			Lon:                   lon,
			FormattedAddress:      fmt.Sprintf("Near %s (~%dkm away)", name, int(distance)),
			City:                  name,
			Country:               nearest.tag("addr:country", "Unknown"),
			State:                 nearest.Tags["addr:state"],
			IsRemote:              true,
			NearestCity:           name,
			NearestCityDistanceKm: round2(distance),
		}, nil
	}

	return oceanPlace(lat, lon, "", 0), nil
}

// CitiesInRadius returns up to 50 cities, towns and villages, nearest first.
func (c *OverpassClient) CitiesInRadius(ctx context.Context, lat, lon, radiusKm float64) ([]models.City, error) {
	elements, err := c.query(ctx, placeQuery(lat, lon, radiusKm, 25, []string{"city", "town", "village"}, 0), "cities")
	if err != nil {
		return nil, err
	}

	cities := make([]models.City, 0, len(elements))
	for _, el := range elements {
		if el.Lat == 0 || el.Lon == 0 {
			continue
		}
		cities = append(cities, models.City{
			Name:       el.tag("name", "Unknown"),
			Lat:        el.Lat,
			Lon:        el.Lon,
			PlaceType:  el.Tags["place"],
			Population: el.tag("population", "Unknown"),
			Country:    el.tag("addr:country", el.tag("is_in:country", "Unknown")),
			DistanceKm: round2(HaversineKm(lat, lon, el.Lat, el.Lon)),
		})
	}

	sort.SliceStable(cities, func(i, j int) bool {
		return cities[i].DistanceKm < cities[j].DistanceKm
	})
	if len(cities) > maxCitiesInRadius {
		cities = cities[:maxCitiesInRadius]
	}
	return cities, nil
}

func (c *OverpassClient) query(ctx context.Context, q, method string) ([]osmElement, error) {
	start := time.Now()
	outcome := "error"
	defer func() { c.metrics.ObserveUpstream(upstreamOverpass, method, outcome, start) }()

	form := url.Values{"data": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass API error: status %d: %s", resp.StatusCode, body)
	}

	var data osmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	outcome = "success"
	if len(data.Elements) == 0 {
		outcome = "empty"
	}
	c.logger.Debug("overpass query complete", "method", method, "elements", len(data.Elements))
	return data.Elements, nil
}

// placeQuery builds an Overpass QL query for place nodes around a point.
// A limit of 0 returns every match.
func placeQuery(lat, lon, radiusKm float64, timeoutSec int, places []string, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", timeoutSec)
	for _, p := range places {
		fmt.Fprintf(&b, "  node[\"place\"=%q](around:%.0f,%f,%f);\n", p, radiusKm*1000, lat, lon)
	}
	b.WriteString(");\nout body")
	if limit > 0 {
		fmt.Fprintf(&b, " %d", limit)
	}
	b.WriteString(";")
	return b.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Overpass response types.

type osmResponse struct {
	Elements []osmElement `json:"elements"`
}

type osmElement struct {
	Type string            `json:"type"`
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

func (e osmElement) tag(key, fallback string) string {
	if v, ok := e.Tags[key]; ok && v != "" {
		return v
	}
	return fallback
}
