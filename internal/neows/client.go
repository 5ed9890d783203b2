// Package neows fetches near-earth-object records from NASA's NeoWs API and
// flattens them into models.AsteroidRecord.
package neows

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-asteroid-impact/internal/metrics"
	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

const (
	DateLayout = "2006-01-02"

	// NeoWs rejects feed windows longer than a week.
	maxFeedDays = 7

	upstreamName = "neows"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	clock      clockwork.Clock
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, clock clockwork.Clock, m *metrics.Metrics, logger *slog.Logger) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:   clock,
		metrics: m,
		logger:  logger,
	}
}

// FeedWindow resolves the feed date range. An empty start means today and
// an empty end means start plus seven days.
func (c *Client) FeedWindow(start, end string) (string, string, error) {
	var (
		startDate time.Time
		err       error
	)
	if start == "" {
		startDate = c.clock.Now().UTC().Truncate(24 * time.Hour)
	} else if startDate, err = time.Parse(DateLayout, start); err != nil {
		return "", "", models.NewValidationError("start_date", fmt.Sprintf("expected YYYY-MM-DD, got %q", start))
	}

	endDate := startDate.AddDate(0, 0, maxFeedDays)
	if end != "" {
		if endDate, err = time.Parse(DateLayout, end); err != nil {
			return "", "", models.NewValidationError("end_date", fmt.Sprintf("expected YYYY-MM-DD, got %q", end))
		}
	}

	if endDate.Before(startDate) {
		return "", "", models.NewValidationError("end_date", "must not be before start_date")
	}
	if endDate.Sub(startDate) > maxFeedDays*24*time.Hour {
		return "", "", models.NewValidationError("end_date", fmt.Sprintf("window must not exceed %d days", maxFeedDays))
	}

	return startDate.Format(DateLayout), endDate.Format(DateLayout), nil
}

// Feed lists the asteroids with close approaches in the window, ordered by
// approach date then id.
func (c *Client) Feed(ctx context.Context, start, end string) ([]models.AsteroidRecord, error) {
	start, end, err := c.FeedWindow(start, end)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"start_date": {start},
		"end_date":   {end},
		"api_key":    {c.apiKey},
	}

	var data feedResponse
	if err := c.get(ctx, c.baseURL+"/feed?"+params.Encode(), "feed", &data); err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(data.NearEarthObjects))
	for d := range data.NearEarthObjects {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var records []models.AsteroidRecord
	for _, d := range dates {
		objects := data.NearEarthObjects[d]
		sort.SliceStable(objects, func(i, j int) bool { return objects[i].ID < objects[j].ID })
		for _, obj := range objects {
			rec, err := obj.record()
			if err != nil {
				c.logger.Warn("skipping malformed neo", "id", obj.ID, "error", err)
				continue
			}
			records = append(records, rec)
		}
	}

	c.logger.Debug("neows feed fetched", "start", start, "end", end, "count", len(records))
	return records, nil
}

// Lookup fetches one asteroid by its NeoWs id.
func (c *Client) Lookup(ctx context.Context, id string) (*models.AsteroidRecord, error) {
	if id == "" {
		return nil, models.NewValidationError("id", "is required")
	}

	params := url.Values{"api_key": {c.apiKey}}
	var obj neo
	if err := c.get(ctx, c.baseURL+"/neo/"+url.PathEscape(id)+"?"+params.Encode(), "lookup", &obj); err != nil {
		return nil, err
	}

	rec, err := obj.record()
	if err != nil {
		return nil, models.Upstream(upstreamName, err)
	}
	return &rec, nil
}

func (c *Client) get(ctx context.Context, fullURL, method string, out any) error {
	start := time.Now()
	outcome := "error"
	defer func() { c.metrics.ObserveUpstream(upstreamName, method, outcome, start) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Upstream(upstreamName, fmt.Errorf("error while doing request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		outcome = "empty"
		return fmt.Errorf("asteroid %w", models.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Upstream(upstreamName, fmt.Errorf("unexpected status code: %d - body: %s", resp.StatusCode, body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.Upstream(upstreamName, fmt.Errorf("error decoding resp.Body: %w", err))
	}

	outcome = "success"
	return nil
}

// NeoWs response types.

type feedResponse struct {
	NearEarthObjects map[string][]neo `json:"near_earth_objects"`
}

type neo struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	EstimatedDiameter struct {
		Meters struct {
			Min float64 `json:"estimated_diameter_min"`
			Max float64 `json:"estimated_diameter_max"`
		} `json:"meters"`
	} `json:"estimated_diameter"`
	IsPotentiallyHazardous bool       `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData      []approach `json:"close_approach_data"`
}

// NeoWs encodes velocities and distances as decimal strings.
type approach struct {
	Date             string `json:"close_approach_date"`
	RelativeVelocity struct {
		KilometersPerSecond string `json:"kilometers_per_second"`
	} `json:"relative_velocity"`
	MissDistance struct {
		Kilometers string `json:"kilometers"`
	} `json:"miss_distance"`
}

func (n neo) record() (models.AsteroidRecord, error) {
	rec := models.AsteroidRecord{
		ID:                     n.ID,
		Name:                   n.Name,
		DiameterMinM:           n.EstimatedDiameter.Meters.Min,
		DiameterMaxM:           n.EstimatedDiameter.Meters.Max,
		IsPotentiallyHazardous: n.IsPotentiallyHazardous,
		CloseApproachData:      make([]models.CloseApproach, 0, len(n.CloseApproachData)),
	}

	for _, a := range n.CloseApproachData {
		v, err := strconv.ParseFloat(a.RelativeVelocity.KilometersPerSecond, 64)
		if err != nil {
			return models.AsteroidRecord{}, fmt.Errorf("parse velocity for %s: %w", n.ID, err)
		}
		miss, err := strconv.ParseFloat(a.MissDistance.Kilometers, 64)
		if err != nil {
			return models.AsteroidRecord{}, fmt.Errorf("parse miss distance for %s: %w", n.ID, err)
		}
		rec.CloseApproachData = append(rec.CloseApproachData, models.CloseApproach{
			Date:           a.Date,
			VelocityKmS:    v,
			MissDistanceKm: miss,
		})
	}

	return rec, nil
}
