// Package settings loads the admin-managed system configuration that gates
// customer features, most importantly the geofence. The backend has grown
// several settings endpoints over time, so the loader walks an ordered
// candidate list and falls back to a file mirror, then hard defaults, rather
// than failing a ticket flow over missing configuration.
package settings

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/furqon2004/antrian-rs-client/internal/api"
	"github.com/furqon2004/antrian-rs-client/internal/geo"
)

const (
	cacheTTL  = 5 * time.Minute
	cacheFile = "hospital_queue_settings.json"
)

// Keys the customer flows read.
const (
	KeyGeofenceEnabled  = "GEOFENCE_ENABLED"
	KeyMaxDistanceMeter = "MAX_DISTANCE_METER"
	KeyHospitalLat      = "HOSPITAL_LAT"
	KeyHospitalLng      = "HOSPITAL_LNG"
)

// Defaults apply when every endpoint and the file mirror are unavailable.
var Defaults = map[string]string{
	KeyGeofenceEnabled:  "false",
	KeyMaxDistanceMeter: "100",
	KeyHospitalLat:      "-8.681671377999534",
	KeyHospitalLng:      "115.23989198137991",
}

// endpoints in order of preference. The admin endpoint is last; it usually
// rejects unauthenticated calls but some deployments leave it open.
var endpoints = []string{
	"/v1/customer/info/settings",
	"/v1/public/settings",
	"/v1/settings",
	"/v1/admin/system-settings",
}

type GeofenceConfig struct {
	Enabled           bool
	MaxDistanceMeters int
	Hospital          geo.Point
}

type Service struct {
	client *api.Client
	dir    string
	logger zerolog.Logger

	mu       sync.Mutex
	cache    map[string]string
	cachedAt time.Time
	now      func() time.Time
}

func NewService(client *api.Client, cacheDir string, logger zerolog.Logger) *Service {
	return &Service{
		client: client,
		dir:    cacheDir,
		logger: logger,
		now:    time.Now,
	}
}

// Fetch returns the settings map. It never fails: the fallback chain is
// memory cache → endpoints → file mirror → defaults.
func (s *Service) Fetch(ctx context.Context, forceRefresh bool) map[string]string {
	s.mu.Lock()
	if !forceRefresh && s.cache != nil && s.now().Sub(s.cachedAt) < cacheTTL {
		cached := s.cache
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	for _, endpoint := range endpoints {
		var raw map[string]json.RawMessage
		if err := s.client.Get(ctx, endpoint, &raw); err != nil {
			s.logger.Debug().Str("endpoint", endpoint).Err(err).Msg("settings endpoint failed")
			continue
		}
		values := flatten(raw)
		applyDefaults(values)
		s.store(values)
		s.saveMirror(values)
		return values
	}

	if mirror := s.loadMirror(); mirror != nil {
		s.store(mirror)
		return mirror
	}

	s.logger.Warn().Msg("all settings endpoints failed, using defaults")
	defaults := map[string]string{}
	applyDefaults(defaults)
	s.store(defaults)
	return defaults
}

// Setting returns one value, falling back to def when absent or empty.
func (s *Service) Setting(ctx context.Context, key, def string) string {
	values := s.Fetch(ctx, false)
	if v := values[key]; v != "" {
		return v
	}
	return def
}

// Geofence parses the geofence-related keys into a typed config.
func (s *Service) Geofence(ctx context.Context) GeofenceConfig {
	values := s.Fetch(ctx, false)

	maxDistance, err := strconv.Atoi(values[KeyMaxDistanceMeter])
	if err != nil || maxDistance <= 0 {
		maxDistance, _ = strconv.Atoi(Defaults[KeyMaxDistanceMeter])
	}
	lat, err := strconv.ParseFloat(values[KeyHospitalLat], 64)
	if err != nil {
		lat, _ = strconv.ParseFloat(Defaults[KeyHospitalLat], 64)
	}
	lng, err := strconv.ParseFloat(values[KeyHospitalLng], 64)
	if err != nil {
		lng, _ = strconv.ParseFloat(Defaults[KeyHospitalLng], 64)
	}

	return GeofenceConfig{
		Enabled:           values[KeyGeofenceEnabled] == "true",
		MaxDistanceMeters: maxDistance,
		Hospital:          geo.Point{Latitude: lat, Longitude: lng},
	}
}

// Invalidate drops the memory cache. Admin settings updates call this so the
// next read sees fresh values.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.cachedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Service) store(values map[string]string) {
	s.mu.Lock()
	s.cache = values
	s.cachedAt = s.now()
	s.mu.Unlock()
}

// flatten tolerates both response shapes the backend has used:
// {key: "value"} and {key: {"value": "..."}}.
func flatten(raw map[string]json.RawMessage) map[string]string {
	values := make(map[string]string, len(raw))
	for key, entry := range raw {
		var wrapped struct {
			Value *string `json:"value"`
		}
		if err := json.Unmarshal(entry, &wrapped); err == nil && wrapped.Value != nil {
			values[key] = *wrapped.Value
			continue
		}
		var scalar interface{}
		if err := json.Unmarshal(entry, &scalar); err != nil {
			continue
		}
		switch v := scalar.(type) {
		case string:
			values[key] = v
		case bool:
			values[key] = strconv.FormatBool(v)
		case float64:
			values[key] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return values
}

func applyDefaults(values map[string]string) {
	for key, def := range Defaults {
		if values[key] == "" {
			values[key] = def
		}
	}
}

func (s *Service) loadMirror() map[string]string {
	raw, err := os.ReadFile(filepath.Join(s.dir, cacheFile))
	if err != nil {
		return nil
	}
	var values map[string]string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}

func (s *Service) saveMirror(values map[string]string) {
	raw, err := json.Marshal(values)
	if err != nil {
		return
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, cacheFile), raw, 0o644); err != nil {
		s.logger.Debug().Err(err).Msg("settings mirror write failed")
	}
}
