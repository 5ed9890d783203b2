package main

import (
	"context"
	"errors"
	"testing"

	"github.com/mr1hm/go-asteroid-impact/internal/impact"
	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

func TestParseArgs_Coordinates(t *testing.T) {
	req, id, err := parseArgs([]string{"-diameter", "250", "-velocity", "20", "-lat", "-23.55", "-lon", "-46.63"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "" {
		t.Errorf("expected no asteroid id, got %q", id)
	}
	if req.Coordinates == nil {
		t.Fatal("expected coordinates to be set")
	}
	if req.Coordinates.Lat != -23.55 || req.Coordinates.Lon != -46.63 {
		t.Errorf("unexpected coordinates: %+v", *req.Coordinates)
	}
	if req.DiameterM == nil || *req.DiameterM != 250 {
		t.Errorf("expected diameter 250, got %v", req.DiameterM)
	}
}

func TestParseArgs_MissingLocationIsRejected(t *testing.T) {
	req, _, err := parseArgs([]string{"-diameter", "250", "-velocity", "20"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Coordinates != nil {
		t.Fatalf("expected no coordinates, got %+v", *req.Coordinates)
	}

	_, err = impact.NewNormalizer(nil, 0).Normalize(context.Background(), req)
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Field != "location" {
		t.Errorf("expected location field, got %q", ve.Field)
	}
}

func TestParseArgs_CityLeavesCoordinatesUnset(t *testing.T) {
	req, _, err := parseArgs([]string{"-asteroid", "3542519", "-city", "São Paulo", "-enrich"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Coordinates != nil {
		t.Errorf("expected no coordinates, got %+v", *req.Coordinates)
	}
	if req.Place != "São Paulo" || !req.Enrich {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestParseArgs_HalfACoordinate(t *testing.T) {
	for _, args := range [][]string{
		{"-diameter", "250", "-velocity", "20", "-lat", "10"},
		{"-diameter", "250", "-velocity", "20", "-lon", "10"},
	} {
		if _, _, err := parseArgs(args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestParseArgs_UnsetSizeIsNotOverride(t *testing.T) {
	req, id, err := parseArgs([]string{"-asteroid", "3542519", "-lat", "0", "-lon", "0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "3542519" {
		t.Errorf("expected asteroid id, got %q", id)
	}
	if req.DiameterM != nil || req.VelocityKmS != nil {
		t.Errorf("expected NASA-derived size and velocity, got %v %v", req.DiameterM, req.VelocityKmS)
	}
}
