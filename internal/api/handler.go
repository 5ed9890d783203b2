package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-asteroid-impact/internal/geocoding"
	"github.com/mr1hm/go-asteroid-impact/internal/impact"
	"github.com/mr1hm/go-asteroid-impact/internal/models"
	"github.com/mr1hm/go-asteroid-impact/internal/repository"
)

type Simulator interface {
	Simulate(ctx context.Context, req impact.Request) (*models.SimulationResult, error)
	SimulateAsteroid(ctx context.Context, id string, req impact.Request) (*models.SimulationResult, error)
}

type Catalog interface {
	Feed(ctx context.Context, f repository.Filter) ([]models.AsteroidRecord, error)
	Lookup(ctx context.Context, id string) (*models.AsteroidRecord, error)
}

type Handler struct {
	sim      Simulator
	catalog  Catalog
	geocoder geocoding.Geocoder
	logger   *slog.Logger
}

func NewHandler(sim Simulator, catalog Catalog, geocoder geocoding.Geocoder, logger *slog.Logger) *Handler {
	return &Handler{
		sim:      sim,
		catalog:  catalog,
		geocoder: geocoder,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/asteroids/near-earth", h.nearEarth)
	api.GET("/asteroids/:id", h.getAsteroid)

	api.POST("/impact/simulate", h.simulate)
	api.POST("/impact/simulate-asteroid/:id", h.simulateAsteroid)
	api.POST("/impact/simulate-city", h.simulateCity)
	api.POST("/impact/simulate-coordinates", h.simulateCoordinates)

	api.GET("/geocode", h.geocode)
	api.GET("/reverse-geocode", h.reverseGeocode)
	api.POST("/identify-location", h.identifyLocation)
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, envelope{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"message": "Asteroid impact API is running",
	})
}

func (h *Handler) nearEarth(c *gin.Context) {
	filter := repository.Filter{
		ApproachFrom: c.Query("start_date"),
		ApproachTo:   c.Query("end_date"),
	}
	if v := c.Query("hazardous_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.fail(c, models.NewValidationError("hazardous_only", fmt.Sprintf("expected a boolean, got %q", v)))
			return
		}
		filter.HazardousOnly = b
	}

	records, err := h.catalog.Feed(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	if records == nil {
		records = []models.AsteroidRecord{}
	}
	h.ok(c, records)
}

func (h *Handler) getAsteroid(c *gin.Context) {
	rec, err := h.catalog.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, rec)
}

// simulateBody accepts direct parameters, a NeoWs record under nasa_data,
// or both; direct fields win.
type simulateBody struct {
	DiameterM      *float64               `json:"diameter_m"`
	VelocityKmS    *float64               `json:"velocity_km_s"`
	DensityKgM3    *float64               `json:"density_kg_m3"`
	ImpactAngle    *float64               `json:"impact_angle"`
	TargetType     string                 `json:"target_type"`
	NASAData       *models.AsteroidRecord `json:"nasa_data"`
	ImpactLocation *locationBody          `json:"impact_location"`
	CityName       string                 `json:"city_name"`
	Lat            *float64               `json:"lat"`
	Lon            *float64               `json:"lon"`
}

type locationBody struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func (b *locationBody) location(field string) (*models.ImpactLocation, error) {
	if b == nil {
		return nil, models.NewValidationError(field, "is required")
	}
	if b.Lat == nil || b.Lon == nil {
		return nil, models.NewValidationError(field, "lat and lon are required")
	}
	return &models.ImpactLocation{Lat: *b.Lat, Lon: *b.Lon}, nil
}

func (b *simulateBody) request() impact.Request {
	return impact.Request{
		DiameterM:   b.DiameterM,
		VelocityKmS: b.VelocityKmS,
		DensityKgM3: b.DensityKgM3,
		ImpactAngle: b.ImpactAngle,
		TargetType:  b.TargetType,
		NASA:        b.NASAData,
	}
}

func bindBody(c *gin.Context) (*simulateBody, error) {
	var body simulateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, models.NewValidationError("body", "expected a JSON object: "+err.Error())
	}
	return &body, nil
}

func (h *Handler) simulate(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	loc, err := body.ImpactLocation.location("impact_location")
	if err != nil {
		h.fail(c, err)
		return
	}

	req := body.request()
	req.Coordinates = loc
	req.Enrich = queryBool(c, "enrich")

	res, err := h.sim.Simulate(c.Request.Context(), req)
	h.respondSimulation(c, res, err)
}

func (h *Handler) simulateAsteroid(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	loc, err := body.ImpactLocation.location("impact_location")
	if err != nil {
		h.fail(c, err)
		return
	}

	req := body.request()
	req.NASA = nil
	req.Coordinates = loc
	req.Enrich = queryBool(c, "enrich")

	res, err := h.sim.SimulateAsteroid(c.Request.Context(), c.Param("id"), req)
	h.respondSimulation(c, res, err)
}

func (h *Handler) simulateCity(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if strings.TrimSpace(body.CityName) == "" {
		h.fail(c, models.NewValidationError("city_name", "is required"))
		return
	}

	req := body.request()
	req.Place = body.CityName
	req.Enrich = true

	res, err := h.sim.Simulate(c.Request.Context(), req)
	h.respondSimulation(c, res, err)
}

// simulateCoordinates takes the point either as impact_location or as
// top-level lat/lon.
func (h *Handler) simulateCoordinates(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	lb := body.ImpactLocation
	if lb == nil && (body.Lat != nil || body.Lon != nil) {
		lb = &locationBody{Lat: body.Lat, Lon: body.Lon}
	}
	loc, err := lb.location("impact_location")
	if err != nil {
		h.fail(c, err)
		return
	}

	req := body.request()
	req.Coordinates = loc
	req.Enrich = true

	res, err := h.sim.Simulate(c.Request.Context(), req)
	h.respondSimulation(c, res, err)
}

func (h *Handler) respondSimulation(c *gin.Context, res *models.SimulationResult, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	if c.Query("format") == "geojson" {
		c.Header("Content-Type", "application/geo+json")
		c.JSON(http.StatusOK, toGeoJSON(res))
		return
	}
	h.ok(c, PresentSimulation(res))
}

func (h *Handler) geocode(c *gin.Context) {
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		h.fail(c, models.NewValidationError("address", "is required"))
		return
	}

	p, err := h.geocoder.Forward(c.Request.Context(), address)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !p.Found() {
		h.fail(c, fmt.Errorf("address %w", models.ErrNotFound))
		return
	}
	h.ok(c, p)
}

func (h *Handler) reverseGeocode(c *gin.Context) {
	loc, err := parseCoordinates(c.Query("lat"), c.Query("lon"))
	if err != nil {
		h.fail(c, err)
		return
	}

	p, err := h.geocoder.Reverse(c.Request.Context(), loc.Lat, loc.Lon)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, p)
}

type identifyResponse struct {
	geocoding.Place
	LocationType string `json:"location_type"`
}

// identifyLocation classifies a point as populated land, remote land or
// open water, with the place details used to decide.
func (h *Handler) identifyLocation(c *gin.Context) {
	var body locationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, models.NewValidationError("body", "expected a JSON object: "+err.Error()))
		return
	}
	loc, err := body.location("location")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := loc.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	p, err := h.geocoder.Reverse(c.Request.Context(), loc.Lat, loc.Lon)
	if err != nil {
		h.fail(c, err)
		return
	}

	kind := "populated"
	switch {
	case p.IsOcean:
		kind = "ocean"
	case p.IsRemote:
		kind = "remote"
	}
	h.ok(c, identifyResponse{Place: p, LocationType: kind})
}

func parseCoordinates(latStr, lonStr string) (models.ImpactLocation, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.ImpactLocation{}, models.NewValidationError("lat", "must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return models.ImpactLocation{}, models.NewValidationError("lon", "must be a number")
	}
	loc := models.ImpactLocation{Lat: lat, Lon: lon}
	return loc, loc.Validate()
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}
