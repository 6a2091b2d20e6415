package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/furqon2004/antrian-rs-client/internal/api"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := api.New(srv.URL, api.Options{Logger: zerolog.Nop()})
	return NewService(client, t.TempDir(), zerolog.Nop())
}

func TestFetchPrefersFirstEndpoint(t *testing.T) {
	var hits atomic.Int32
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v1/customer/info/settings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"success":true,"data":{"GEOFENCE_ENABLED":"true","MAX_DISTANCE_METER":"250"}}`)
	})

	values := s.Fetch(context.Background(), false)
	if values[KeyGeofenceEnabled] != "true" {
		t.Fatalf("expected geofence enabled, got %q", values[KeyGeofenceEnabled])
	}
	if values[KeyMaxDistanceMeter] != "250" {
		t.Fatalf("expected max distance 250, got %q", values[KeyMaxDistanceMeter])
	}
	// missing keys are topped up with defaults
	if values[KeyHospitalLat] != Defaults[KeyHospitalLat] {
		t.Fatalf("expected default latitude, got %q", values[KeyHospitalLat])
	}

	// second read within the TTL comes from memory
	s.Fetch(context.Background(), false)
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one backend hit, got %d", got)
	}
}

func TestFetchWalksEndpointChain(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path != "/v1/settings" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"success":true,"data":{"GEOFENCE_ENABLED":"true"}}`)
	})

	values := s.Fetch(context.Background(), false)
	if values[KeyGeofenceEnabled] != "true" {
		t.Fatalf("expected value from third endpoint, got %q", values[KeyGeofenceEnabled])
	}
	want := []string{"/v1/customer/info/settings", "/v1/public/settings", "/v1/settings"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d requests, got %v", len(want), paths)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Fatalf("expected request %d to %s, got %s", i, p, paths[i])
		}
	}
}

func TestFetchFallsBackToMirrorThenDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	client := api.New(srv.URL, api.Options{Logger: zerolog.Nop()})

	dir := t.TempDir()
	mirror := map[string]string{KeyGeofenceEnabled: "true", KeyMaxDistanceMeter: "500"}
	raw, _ := json.Marshal(mirror)
	os.WriteFile(filepath.Join(dir, cacheFile), raw, 0o644)

	s := NewService(client, dir, zerolog.Nop())
	values := s.Fetch(context.Background(), false)
	if values[KeyMaxDistanceMeter] != "500" {
		t.Fatalf("expected mirror value, got %q", values[KeyMaxDistanceMeter])
	}

	// no mirror at all -> hard defaults
	s2 := NewService(client, t.TempDir(), zerolog.Nop())
	values = s2.Fetch(context.Background(), false)
	if values[KeyGeofenceEnabled] != "false" {
		t.Fatalf("expected default geofence off, got %q", values[KeyGeofenceEnabled])
	}
}

func TestFetchExpiresAfterTTL(t *testing.T) {
	var hits atomic.Int32
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"success":true,"data":{}}`)
	})

	now := time.Now()
	s.now = func() time.Time { return now }
	s.Fetch(context.Background(), false)
	now = now.Add(cacheTTL + time.Second)
	s.Fetch(context.Background(), false)
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected refetch after TTL, got %d hits", got)
	}
}

func TestInvalidateDropsCache(t *testing.T) {
	var hits atomic.Int32
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"success":true,"data":{}}`)
	})

	s.Fetch(context.Background(), false)
	s.Invalidate()
	s.Fetch(context.Background(), false)
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected refetch after invalidate, got %d hits", got)
	}
}

func TestFlattenShapes(t *testing.T) {
	raw := map[string]json.RawMessage{
		"plain":   json.RawMessage(`"hello"`),
		"wrapped": json.RawMessage(`{"value":"world"}`),
		"flag":    json.RawMessage(`true`),
		"number":  json.RawMessage(`42.5`),
		"skipped": json.RawMessage(`["array"]`),
	}
	values := flatten(raw)
	want := map[string]string{"plain": "hello", "wrapped": "world", "flag": "true", "number": "42.5"}
	for key, expected := range want {
		if values[key] != expected {
			t.Fatalf("key %s: expected %q, got %q", key, expected, values[key])
		}
	}
	if _, ok := values["skipped"]; ok {
		t.Fatal("expected array value skipped")
	}
}

func TestGeofenceParsing(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":{
			"GEOFENCE_ENABLED":"true",
			"MAX_DISTANCE_METER":"300",
			"HOSPITAL_LAT":"-8.5",
			"HOSPITAL_LNG":"115.2"
		}}`)
	})

	cfg := s.Geofence(context.Background())
	if !cfg.Enabled {
		t.Fatal("expected geofence enabled")
	}
	if cfg.MaxDistanceMeters != 300 {
		t.Fatalf("expected 300m, got %d", cfg.MaxDistanceMeters)
	}
	if cfg.Hospital.Latitude != -8.5 || cfg.Hospital.Longitude != 115.2 {
		t.Fatalf("unexpected hospital point %+v", cfg.Hospital)
	}
}

func TestGeofenceBadValuesFallBack(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":{
			"GEOFENCE_ENABLED":"yes",
			"MAX_DISTANCE_METER":"-5",
			"HOSPITAL_LAT":"north"
		}}`)
	})

	cfg := s.Geofence(context.Background())
	if cfg.Enabled {
		t.Fatal("only the literal true enables the geofence")
	}
	if cfg.MaxDistanceMeters != 100 {
		t.Fatalf("expected default 100m, got %d", cfg.MaxDistanceMeters)
	}
	if cfg.Hospital.Latitude == 0 {
		t.Fatal("expected default latitude, got zero")
	}
}

func TestFlattenWrappedNullValue(t *testing.T) {
	raw := map[string]json.RawMessage{
		"nullable": json.RawMessage(`{"value":null}`),
	}
	if values := flatten(raw); values["nullable"] != "" {
		t.Fatalf("expected empty for null value, got %q", values["nullable"])
	}
}
