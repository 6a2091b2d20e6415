// Package info wraps the public customer endpoints: queue types, polys and
// doctors. Queue types are enriched client-side with today's service hours
// and quota totals because the backend exposes those only through doctor
// schedules.
package info

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/furqon2004/antrian-rs-client/internal/api"
	"github.com/furqon2004/antrian-rs-client/internal/models"
)

const (
	polysCacheFile = "polys_cache.json"
	polysCacheTTL  = 5 * time.Minute
)

type Service struct {
	client *api.Client
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(client *api.Client, cacheDir string, logger zerolog.Logger) *Service {
	return &Service{client: client, dir: cacheDir, logger: logger, now: time.Now}
}

// QueueTypes lists queue types that can actually be taken today: only those
// whose poly has at least one doctor scheduled, enriched with service hours
// and quota. Poly and doctor lookups are best-effort; only the queue type
// list itself is required.
func (s *Service) QueueTypes(ctx context.Context) ([]models.QueueType, error) {
	var queueTypes []models.QueueType
	if err := s.client.Get(ctx, "/v1/customer/info/queue-types", &queueTypes); err != nil {
		return nil, err
	}

	polys, err := s.Polys(ctx, false)
	if err != nil {
		s.logger.Debug().Err(err).Msg("polys lookup failed")
	}
	doctors, err := s.Doctors(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("doctors lookup failed")
	}

	day := dayOfWeek(s.now())
	scheduled := polysWithScheduleToday(doctors, day)

	enriched := make([]models.QueueType, 0, len(queueTypes))
	for _, qt := range queueTypes {
		if !scheduled[qt.PolyID] {
			continue
		}
		maxQuota, remaining := polyQuota(doctors, qt.PolyID, day)
		qt.ServiceHours = polyServiceHours(polys, doctors, qt.PolyID, day)
		qt.Quota = maxQuota
		qt.RemainingQuota = remaining
		qt.TodayCount = maxQuota - remaining
		enriched = append(enriched, qt)
	}
	return enriched, nil
}

// Polys lists active polys, cached on disk for five minutes.
func (s *Service) Polys(ctx context.Context, forceRefresh bool) ([]models.Poly, error) {
	if !forceRefresh {
		if cached := s.cachedPolys(); cached != nil {
			return cached, nil
		}
	}

	var polys []models.Poly
	if err := s.client.Get(ctx, "/v1/customer/info/polys", &polys); err != nil {
		return nil, err
	}
	s.cachePolys(polys)
	return polys, nil
}

func (s *Service) Doctors(ctx context.Context) ([]models.Doctor, error) {
	var doctors []models.Doctor
	if err := s.client.Get(ctx, "/v1/customer/info/doctors", &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

// DoctorOnDuty pairs a doctor with their schedule slot for today.
type DoctorOnDuty struct {
	models.Doctor
	TodaySchedule *models.Schedule `json:"schedule,omitempty"`
}

// DoctorsOnDuty lists doctors practicing today, optionally restricted to a
// poly.
func (s *Service) DoctorsOnDuty(ctx context.Context, polyID string) ([]DoctorOnDuty, error) {
	doctors, err := s.Doctors(ctx)
	if err != nil {
		return nil, err
	}

	day := dayOfWeek(s.now())
	var onDuty []DoctorOnDuty
	for _, doc := range doctors {
		if polyID != "" && doc.PolyID != polyID {
			continue
		}
		schedule := scheduleForDay(doc.Schedules, day)
		if schedule == nil {
			continue
		}
		onDuty = append(onDuty, DoctorOnDuty{Doctor: doc, TodaySchedule: schedule})
	}
	return onDuty, nil
}

// dayOfWeek maps time.Weekday to the backend's 1 (Monday) .. 7 (Sunday).
func dayOfWeek(t time.Time) int {
	day := int(t.Weekday())
	if day == 0 {
		return 7
	}
	return day
}

func scheduleForDay(schedules []models.Schedule, day int) *models.Schedule {
	for i := range schedules {
		if schedules[i].DayOfWeek == day {
			return &schedules[i]
		}
	}
	return nil
}

func polysWithScheduleToday(doctors []models.Doctor, day int) map[string]bool {
	scheduled := map[string]bool{}
	for _, doc := range doctors {
		if scheduleForDay(doc.Schedules, day) != nil {
			scheduled[doc.PolyID] = true
		}
	}
	return scheduled
}

func polyQuota(doctors []models.Doctor, polyID string, day int) (maxQuota, remaining int) {
	for _, doc := range doctors {
		if doc.PolyID != polyID {
			continue
		}
		schedule := scheduleForDay(doc.Schedules, day)
		if schedule == nil {
			continue
		}
		maxQuota += schedule.MaxQuota
		if schedule.RemainingQuota != nil {
			remaining += *schedule.RemainingQuota
		} else {
			remaining += schedule.MaxQuota
		}
	}
	return maxQuota, remaining
}

// polyServiceHours prefers the poly's own configured hours and falls back to
// the first scheduled doctor's slot.
func polyServiceHours(polys []models.Poly, doctors []models.Doctor, polyID string, day int) *models.ServiceHour {
	for _, poly := range polys {
		if poly.ID != polyID {
			continue
		}
		for i := range poly.ServiceHours {
			if poly.ServiceHours[i].DayOfWeek == day {
				return &poly.ServiceHours[i]
			}
		}
	}

	for _, doc := range doctors {
		if doc.PolyID != polyID {
			continue
		}
		if schedule := scheduleForDay(doc.Schedules, day); schedule != nil {
			return &models.ServiceHour{
				PolyID:    polyID,
				DayOfWeek: day,
				OpenTime:  schedule.StartTime,
				CloseTime: schedule.EndTime,
				IsActive:  true,
			}
		}
	}
	return nil
}

type polysCacheEntry struct {
	Data      []models.Poly `json:"data"`
	Timestamp time.Time     `json:"timestamp"`
}

func (s *Service) cachedPolys() []models.Poly {
	raw, err := os.ReadFile(filepath.Join(s.dir, polysCacheFile))
	if err != nil {
		return nil
	}
	var entry polysCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil
	}
	if s.now().Sub(entry.Timestamp) >= polysCacheTTL {
		return nil
	}
	return entry.Data
}

func (s *Service) cachePolys(polys []models.Poly) {
	raw, err := json.Marshal(polysCacheEntry{Data: polys, Timestamp: s.now()})
	if err != nil {
		return
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, polysCacheFile), raw, 0o644); err != nil {
		s.logger.Debug().Err(err).Msg("polys cache write failed")
	}
}
