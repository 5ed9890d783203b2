package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/mr1hm/go-asteroid-impact/internal/metrics"
)

const upstreamDistanceMatrix = "distancematrix"

// DistanceMatrixClient talks to the Distance Matrix AI geocoding API.
type DistanceMatrixClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewDistanceMatrixClient(baseURL, apiKey string, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *DistanceMatrixClient {
	return &DistanceMatrixClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: m,
		logger:  logger,
	}
}

// Forward geocodes an address. No match yields a zero Place and nil error.
func (c *DistanceMatrixClient) Forward(ctx context.Context, address string) (Place, error) {
	params := url.Values{
		"address": {address},
		"key":     {c.apiKey},
	}
	res, err := c.doRequest(ctx, params, "forward")
	if err != nil || res == nil {
		return Place{}, err
	}

	// A result without coordinates is not a match.
	if res.Geometry == nil || res.Geometry.Location == nil {
		c.logger.Debug("geocode result has no geometry", "address", address)
		return Place{}, nil
	}

	p := res.place()
	if p.FormattedAddress == "" {
		p.FormattedAddress = address
	}
	p.Lat = res.Geometry.Location.Lat
	p.Lon = res.Geometry.Location.Lng
	return p, nil
}

// Reverse only reports a match when the result names a city; callers fall
// back to Overpass otherwise.
func (c *DistanceMatrixClient) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	params := url.Values{
		"latlng": {fmt.Sprintf("%f,%f", lat, lon)},
		"key":    {c.apiKey},
	}
	res, err := c.doRequest(ctx, params, "reverse")
	if err != nil || res == nil {
		return Place{}, err
	}

	p := res.place()
	if p.City == "" {
		return Place{}, nil
	}
	if p.FormattedAddress == "" {
		p.FormattedAddress = "Unknown"
	}
	p.Lat = lat
	p.Lon = lon
	return p, nil
}

func (c *DistanceMatrixClient) doRequest(ctx context.Context, params url.Values, method string) (*dmResult, error) {
	start := time.Now()
	outcome := "error"
	defer func() { c.metrics.ObserveUpstream(upstreamDistanceMatrix, method, outcome, start) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geocode/json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("distancematrix API error: status %d: %s", resp.StatusCode, body)
	}

	var data dmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if data.Status != "OK" || len(data.Result) == 0 {
		outcome = "empty"
		c.logger.Debug("geocode returned no result", "method", method, "status", data.Status)
		return nil, nil
	}

	outcome = "success"
	return &data.Result[0], nil
}

// Distance Matrix AI response types.

type dmResponse struct {
	Status string     `json:"status"`
	Result []dmResult `json:"result"`
}

type dmResult struct {
	FormattedAddress  string        `json:"formatted_address"`
	Geometry          *dmGeometry   `json:"geometry"`
	AddressComponents []dmComponent `json:"address_components"`
}

type dmGeometry struct {
	Location *dmLatLng `json:"location"`
}

type dmLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type dmComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

func (r *dmResult) place() Place {
	p := Place{FormattedAddress: r.FormattedAddress}
	for _, comp := range r.AddressComponents {
		switch {
		case slices.Contains(comp.Types, "locality"):
			p.City = comp.LongName
		case slices.Contains(comp.Types, "country"):
			p.Country = comp.LongName
			p.CountryCode = comp.ShortName
		case slices.Contains(comp.Types, "administrative_area_level_1"):
			p.State = comp.LongName
		}
	}
	return p
}
