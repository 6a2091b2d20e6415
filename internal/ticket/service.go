// Package ticket implements the customer ticket lifecycle: taking a ticket
// behind the geofence gate, cancelling it, and keeping the local cache
// reconciled with backend truth.
package ticket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/furqon2004/antrian-rs-client/internal/api"
	"github.com/furqon2004/antrian-rs-client/internal/geo"
	"github.com/furqon2004/antrian-rs-client/internal/models"
	"github.com/furqon2004/antrian-rs-client/internal/queue"
	"github.com/furqon2004/antrian-rs-client/internal/settings"
	"github.com/furqon2004/antrian-rs-client/internal/storage"
)

type Service struct {
	client   *api.Client
	repo     storage.TicketRepository
	settings *settings.Service
	checker  *queue.Checker
	locator  geo.Locator
	logger   zerolog.Logger
}

func NewService(client *api.Client, repo storage.TicketRepository, set *settings.Service, checker *queue.Checker, locator geo.Locator, logger zerolog.Logger) *Service {
	return &Service{
		client:   client,
		repo:     repo,
		settings: set,
		checker:  checker,
		locator:  locator,
		logger:   logger,
	}
}

// ActiveTicketError rejects a new ticket while one is still in the queue.
type ActiveTicketError struct {
	Ticket models.Ticket
}

func (e *ActiveTicketError) Error() string {
	statusText := map[string]string{
		models.StatusWaiting: "menunggu antrian",
		models.StatusCalled:  "sedang dipanggil",
		models.StatusServing: "sedang dilayani",
	}[e.Ticket.Status]
	if statusText == "" {
		statusText = "aktif"
	}
	return fmt.Sprintf("Anda masih memiliki antrian yang %s (%s). Mohon selesaikan antrian tersebut sebelum mengambil nomor baru.", statusText, e.Ticket.DisplayNumber)
}

// GeofenceError rejects a ticket taken too far from the hospital.
type GeofenceError struct {
	DistanceMeters    float64
	MaxDistanceMeters int
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("Anda terlalu jauh dari lokasi (%.2f km). Harap berada dalam radius %d meter untuk mengambil antrian.", e.DistanceMeters/1000, e.MaxDistanceMeters)
}

type CreateInput struct {
	QueueType   models.QueueType
	PatientName string
	PaymentType string // "BPJS" or "UMUM"
	DoctorID    string
}

type takeRequest struct {
	QueueTypeID string  `json:"queue_type_id"`
	PatientName string  `json:"patient_name"`
	PaymentType string  `json:"payment_type"`
	DoctorID    string  `json:"doctor_id,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Create takes a new ticket. It first syncs cached statuses so a stale
// active entry does not block a legitimate request, enforces the one-active-
// ticket policy, applies the geofence, then submits and caches the result.
func (s *Service) Create(ctx context.Context, input CreateInput) (models.Ticket, error) {
	if input.PaymentType == "" {
		input.PaymentType = "UMUM"
	}

	if err := s.SyncStatuses(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("pre-create status sync failed")
	}

	active, found, err := s.repo.ActiveTicket()
	if err != nil {
		return models.Ticket{}, err
	}
	if found {
		return models.Ticket{}, &ActiveTicketError{Ticket: active}
	}

	geofence := s.settings.Geofence(ctx)

	location, err := s.locate(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("geolocation failed")
		// Only fatal when the geofence actually needs a position.
		if geofence.Enabled {
			return models.Ticket{}, fmt.Errorf("Gagal mendapatkan lokasi. Mohon aktifkan izin lokasi untuk mengambil antrian: %w", err)
		}
	}

	if geofence.Enabled && !location.IsZero() {
		distance := geo.Distance(location, geofence.Hospital)
		s.logger.Debug().
			Float64("distance_m", distance).
			Int("max_m", geofence.MaxDistanceMeters).
			Msg("geofence check")
		if distance > float64(geofence.MaxDistanceMeters) {
			return models.Ticket{}, &GeofenceError{
				DistanceMeters:    distance,
				MaxDistanceMeters: geofence.MaxDistanceMeters,
			}
		}
	}

	// Outside the geofence flow the backend still expects coordinates; send
	// the hospital's own point.
	if !geofence.Enabled || location.IsZero() {
		location = geofence.Hospital
	}

	var raw json.RawMessage
	err = s.client.Post(ctx, "/v1/customer/queue/take", takeRequest{
		QueueTypeID: input.QueueType.ID,
		PatientName: input.PatientName,
		PaymentType: input.PaymentType,
		DoctorID:    input.DoctorID,
		Latitude:    location.Latitude,
		Longitude:   location.Longitude,
	}, &raw)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("Gagal membuat tiket. %s", api.ErrorMessage(err, "Silakan coba lagi."))
	}

	ticket, err := normalizeTake(raw, input)
	if err != nil {
		return models.Ticket{}, err
	}
	if err := s.repo.Save(ticket); err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

// Cancel voids the ticket on the backend and mirrors the terminal status
// into the local cache.
func (s *Service) Cancel(ctx context.Context, token string) error {
	if err := s.client.Post(ctx, "/v1/customer/queue/cancel/"+token, nil, nil); err != nil {
		return fmt.Errorf("%s", api.ErrorMessage(err, "Gagal membatalkan tiket"))
	}
	return s.repo.UpdateStatus(token, models.StatusCancelled)
}

// SyncStatuses queries the backend for every cached ticket, sequentially,
// and overwrites local statuses that drifted. A 404 means the backend no
// longer tracks the ticket and is recorded as DONE, not treated as an error.
func (s *Service) SyncStatuses(ctx context.Context) error {
	tickets, err := s.repo.Tickets()
	if err != nil {
		return err
	}

	for _, t := range tickets {
		key := t.Token
		if key == "" {
			key = t.ID
		}
		if key == "" {
			continue
		}

		payload, err := s.checker.Status(ctx, key)
		if err != nil {
			if api.IsNotFound(err) {
				s.logger.Debug().Str("ticket", key).Msg("ticket gone from backend, marking done")
				if err := s.repo.UpdateStatus(key, models.StatusDone); err != nil {
					return err
				}
			}
			continue
		}
		if payload.Ticket == nil || payload.Ticket.Status == "" {
			continue
		}
		if payload.Ticket.Status != t.Status {
			s.logger.Debug().
				Str("ticket", key).
				Str("from", t.Status).
				Str("to", payload.Ticket.Status).
				Msg("ticket status changed")
			if err := s.repo.UpdateStatus(key, payload.Ticket.Status); err != nil {
				return err
			}
		}
	}
	return nil
}

// HasActive reports whether any cached ticket still occupies a queue slot.
func (s *Service) HasActive() (bool, error) {
	_, found, err := s.repo.ActiveTicket()
	return found, err
}

func (s *Service) Active() (models.Ticket, bool, error) {
	return s.repo.ActiveTicket()
}

func (s *Service) locate(ctx context.Context) (geo.Point, error) {
	if s.locator == nil {
		return geo.Point{}, geo.ErrLocationUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, geo.LocationTimeout)
	defer cancel()
	return s.locator.Locate(ctx)
}

type takeResponse struct {
	Ticket *models.Ticket `json:"ticket"`
	Token  string         `json:"token"`
}

// normalizeTake flattens the heterogeneous creation response (nested ticket
// plus token, or a bare ticket) into a canonical record, filling gaps from
// the request input.
func normalizeTake(raw json.RawMessage, input CreateInput) (models.Ticket, error) {
	var resp takeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.Ticket{}, fmt.Errorf("decode ticket response: %w", err)
	}

	var ticket models.Ticket
	if resp.Ticket != nil {
		ticket = *resp.Ticket
	} else if err := json.Unmarshal(raw, &ticket); err != nil {
		return models.Ticket{}, fmt.Errorf("decode ticket response: %w", err)
	}

	if resp.Token != "" {
		ticket.Token = resp.Token
	}
	if ticket.Status == "" {
		ticket.Status = models.StatusWaiting
	}
	if ticket.QueueTypeID == "" {
		ticket.QueueTypeID = input.QueueType.ID
	}
	if ticket.QueueType == nil {
		qt := input.QueueType
		ticket.QueueType = &qt
	}
	if ticket.QueueTypeName == "" {
		ticket.QueueTypeName = ticket.QueueType.Name
	}
	if ticket.QueueTypeCode == "" {
		ticket.QueueTypeCode = ticket.QueueType.CodePrefix
	}
	if ticket.DisplayNumber == "" && ticket.QueueNumber > 0 {
		ticket.DisplayNumber = fmt.Sprintf("%s-%03d", ticket.QueueTypeCode, ticket.QueueNumber)
	}
	ticket.PatientName = input.PatientName
	ticket.PaymentType = input.PaymentType
	if input.DoctorID != "" && ticket.DoctorID == "" {
		ticket.DoctorID = input.DoctorID
	}
	return ticket, nil
}
