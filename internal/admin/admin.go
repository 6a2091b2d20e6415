// Package admin wraps the authenticated admin endpoints: resource CRUD,
// system settings, dashboard statistics and date-ranged reports.
package admin

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/furqon2004/antrian-rs-client/internal/api"
	"github.com/furqon2004/antrian-rs-client/internal/models"
)

// resource is a CRUD client for one admin REST collection.
type resource[T any] struct {
	client *api.Client
	base   string
}

func (r resource[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.client.Get(ctx, r.base, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r resource[T]) Get(ctx context.Context, id string) (T, error) {
	var item T
	err := r.client.Get(ctx, r.base+"/"+id, &item)
	return item, err
}

func (r resource[T]) Create(ctx context.Context, input any) (T, error) {
	var item T
	err := r.client.Post(ctx, r.base, input, &item)
	return item, err
}

func (r resource[T]) Update(ctx context.Context, id string, input any) (T, error) {
	var item T
	err := r.client.Put(ctx, r.base+"/"+id, input, &item)
	return item, err
}

func (r resource[T]) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, r.base+"/"+id, nil)
}

// Service bundles the admin resource clients. The settings invalidation hook
// is called after every system-settings write so stale geofence values are
// not served from cache.
type Service struct {
	client             *api.Client
	logger             zerolog.Logger
	invalidateSettings func()

	Doctors      resource[models.Doctor]
	Polys        resource[models.Poly]
	Staff        resource[models.Staff]
	QueueTypes   resource[models.QueueType]
	ServiceHours resource[models.ServiceHour]
}

func NewService(client *api.Client, logger zerolog.Logger, invalidateSettings func()) *Service {
	return &Service{
		client:             client,
		logger:             logger,
		invalidateSettings: invalidateSettings,
		Doctors:            resource[models.Doctor]{client: client, base: "/v1/admin/doctors"},
		Polys:              resource[models.Poly]{client: client, base: "/v1/admin/polys"},
		Staff:              resource[models.Staff]{client: client, base: "/v1/admin/staff"},
		QueueTypes:         resource[models.QueueType]{client: client, base: "/v1/admin/queue-types"},
		ServiceHours:       resource[models.ServiceHour]{client: client, base: "/v1/admin/poly-service-hours"},
	}
}

type DoctorInput struct {
	PolyID         string `json:"poly_id"`
	Name           string `json:"name"`
	SIPNumber      string `json:"sip_number,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

type PolyInput struct {
	Name              string `json:"name"`
	Code              string `json:"code,omitempty"`
	Description       string `json:"description,omitempty"`
	IsActive          bool   `json:"is_active"`
	AvgServiceMinutes int    `json:"avg_service_minutes,omitempty"`
}

type StaffInput struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	PolyID   string `json:"poly_id"`
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
}

type QueueTypeInput struct {
	PolyID      string `json:"poly_id"`
	Name        string `json:"name"`
	CodePrefix  string `json:"code_prefix,omitempty"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type ScheduleInput struct {
	DoctorID  string `json:"doctor_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	MaxQuota  int    `json:"max_quota,omitempty"`
}

type ServiceHourInput struct {
	PolyID    string `json:"poly_id"`
	DayOfWeek int    `json:"day_of_week"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	IsActive  bool   `json:"is_active"`
}

// Schedules have no list endpoint of their own; they come nested under
// doctors, so only the write operations exist here.

func (s *Service) CreateSchedule(ctx context.Context, input ScheduleInput) (models.Schedule, error) {
	var schedule models.Schedule
	err := s.client.Post(ctx, "/v1/admin/schedules", input, &schedule)
	return schedule, err
}

func (s *Service) UpdateSchedule(ctx context.Context, id string, input ScheduleInput) (models.Schedule, error) {
	var schedule models.Schedule
	err := s.client.Put(ctx, "/v1/admin/schedules/"+id, input, &schedule)
	return schedule, err
}

func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/v1/admin/schedules/"+id, nil)
}

// PolyServiceHours lists service hours, optionally filtered to one poly.
// The endpoint returns all rows; filtering happens client-side.
func (s *Service) PolyServiceHours(ctx context.Context, polyID string) ([]models.ServiceHour, error) {
	hours, err := s.ServiceHours.List(ctx)
	if err != nil {
		return nil, err
	}
	if polyID == "" {
		return hours, nil
	}
	filtered := hours[:0]
	for _, h := range hours {
		if h.PolyID == polyID {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

type SettingUpdate struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SystemSettings returns the raw system settings map.
func (s *Service) SystemSettings(ctx context.Context) (map[string]string, error) {
	var values map[string]string
	if err := s.client.Get(ctx, "/v1/admin/system-settings", &values); err != nil {
		return nil, err
	}
	return values, nil
}

// UpdateSystemSettings writes several settings in one request.
func (s *Service) UpdateSystemSettings(ctx context.Context, updates []SettingUpdate) error {
	body := struct {
		Settings []SettingUpdate `json:"settings"`
	}{Settings: updates}
	if err := s.client.Put(ctx, "/v1/admin/system-settings", body, nil); err != nil {
		return err
	}
	s.afterSettingsWrite(len(updates))
	return nil
}

// UpdateSystemSetting writes a single setting by key.
func (s *Service) UpdateSystemSetting(ctx context.Context, key, value string) error {
	body := struct {
		Value string `json:"value"`
	}{Value: value}
	if err := s.client.Put(ctx, "/v1/admin/system-settings/"+key, body, nil); err != nil {
		return err
	}
	s.afterSettingsWrite(1)
	return nil
}

func (s *Service) afterSettingsWrite(n int) {
	s.logger.Debug().Int("updated", n).Msg("system settings changed, dropping cached copy")
	if s.invalidateSettings != nil {
		s.invalidateSettings()
	}
}
