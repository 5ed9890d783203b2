package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	return db
}

func testRecord(id string, hazardous bool) *models.AsteroidRecord {
	return &models.AsteroidRecord{
		ID:                     id,
		Name:                   "Test " + id,
		DiameterMinM:           313.73,
		DiameterMaxM:           701.52,
		IsPotentiallyHazardous: hazardous,
		CloseApproachData: []models.CloseApproach{
			{Date: "2026-10-17", VelocityKmS: 18.29, MissDistanceKm: 6543210.5},
		},
	}
}

func TestSQLiteDB_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	fetched := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	if err := db.Upsert(ctx, testRecord("2247517", true), fetched); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := db.GetByID(ctx, "2247517")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached asteroid, got nil")
	}
	if got.Record.Name != "Test 2247517" {
		t.Errorf("expected name 'Test 2247517', got '%s'", got.Record.Name)
	}
	if !got.Record.IsPotentiallyHazardous {
		t.Error("expected hazardous flag to round-trip")
	}
	if len(got.Record.CloseApproachData) != 1 || got.Record.CloseApproachData[0].VelocityKmS != 18.29 {
		t.Errorf("unexpected close approaches: %+v", got.Record.CloseApproachData)
	}
	if !got.FetchedAt.Equal(fetched) {
		t.Errorf("expected fetched_at %v, got %v", fetched, got.FetchedAt)
	}
}

func TestSQLiteDB_GetByID_Missing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	got, err := db.GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing id, got %+v", got)
	}
}

func TestSQLiteDB_UpsertReplaces(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	rec := testRecord("dup", false)
	if err := db.Upsert(ctx, rec, time.Unix(100, 0)); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}

	rec.Name = "Renamed"
	rec.CloseApproachData = nil
	if err := db.Upsert(ctx, rec, time.Unix(200, 0)); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := db.GetByID(ctx, "dup")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Record.Name != "Renamed" {
		t.Errorf("expected name 'Renamed', got '%s'", got.Record.Name)
	}
	if got.FetchedAt.Unix() != 200 {
		t.Errorf("expected fetched_at 200, got %d", got.FetchedAt.Unix())
	}
}

func TestSQLiteDB_Exists(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	exists, err := db.Exists(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected false for nonexistent ID")
	}

	db.Upsert(ctx, testRecord("exists_test", false), time.Now())

	exists, err = db.Exists(ctx, "exists_test")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected true for existing ID")
	}
}

func approaching(id string, hazardous bool, dates ...string) *models.AsteroidRecord {
	rec := testRecord(id, hazardous)
	rec.CloseApproachData = nil
	for _, d := range dates {
		rec.CloseApproachData = append(rec.CloseApproachData, models.CloseApproach{Date: d, VelocityKmS: 12.5})
	}
	return rec
}

func TestSQLiteDB_List_WithFilters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	fetched := time.Unix(5_000, 0)

	db.Upsert(ctx, approaching("a", true, "2026-10-19"), fetched)
	db.Upsert(ctx, approaching("b", false, "2026-10-16"), fetched)
	db.Upsert(ctx, approaching("c", true, "2025-01-01", "2026-10-16"), fetched)
	db.Upsert(ctx, approaching("d", true, "2026-12-01"), fetched)
	db.Upsert(ctx, approaching("e", false), fetched)

	results, err := db.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(results) != 5 || results[0].ID != "a" {
		t.Errorf("expected all 5 asteroids ordered by id, got %+v", results)
	}

	results, err = db.List(ctx, Filter{HazardousOnly: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 hazardous asteroids, got %d", len(results))
	}

	window := Filter{ApproachFrom: "2026-10-15", ApproachTo: "2026-10-22"}
	results, err = db.List(ctx, window)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var ids []string
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	if strings.Join(ids, ",") != "b,c,a" {
		t.Errorf("expected [b c a] ordered by approach date, got %v", ids)
	}

	window.HazardousOnly = true
	results, err = db.List(ctx, window)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(results) != 2 || results[0].ID != "c" || results[1].ID != "a" {
		t.Errorf("expected [c a], got %+v", results)
	}
}

func TestFilter_Match(t *testing.T) {
	f := Filter{ApproachFrom: "2026-10-15", ApproachTo: "2026-10-22", HazardousOnly: true}

	tests := []struct {
		name string
		rec  *models.AsteroidRecord
		want bool
	}{
		{"hazardous in window", approaching("x", true, "2026-10-22"), true},
		{"not hazardous", approaching("x", false, "2026-10-18"), false},
		{"before window", approaching("x", true, "2026-10-14"), false},
		{"after window", approaching("x", true, "2026-10-23"), false},
		{"no approaches", approaching("x", true), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Match(tt.rec); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}

	if !(Filter{}).Match(approaching("x", false)) {
		t.Error("expected an empty filter to match everything")
	}
}

func TestSQLiteDB_DeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	db.Upsert(ctx, testRecord("old", false), time.Unix(1_000, 0))
	db.Upsert(ctx, testRecord("new", false), time.Unix(9_000, 0))

	n, err := db.DeleteOlderThan(ctx, time.Unix(5_000, 0))
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row deleted, got %d", n)
	}

	exists, _ := db.Exists(ctx, "old")
	if exists {
		t.Error("expected old record to be pruned")
	}
}
