// Package staff wraps the authenticated staff endpoints for running a
// poly's queue: calling, skipping, recalling and serving tickets.
package staff

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/furqon2004/antrian-rs-client/internal/api"
	"github.com/furqon2004/antrian-rs-client/internal/models"
)

var ErrEmptyQueue = errors.New("Tidak ada antrian untuk dipanggil")

type Service struct {
	client *api.Client
	logger zerolog.Logger
}

func NewService(client *api.Client, logger zerolog.Logger) *Service {
	return &Service{client: client, logger: logger}
}

// Queue returns today's tickets for the staff's poly. Older backend
// revisions return the list grouped in an object keyed by queue id, so both
// shapes are accepted.
func (s *Service) Queue(ctx context.Context) ([]models.Ticket, error) {
	return s.ticketList(ctx, "/v1/staff/queue/today")
}

// Skipped returns tickets parked by the skip action.
func (s *Service) Skipped(ctx context.Context) ([]models.Ticket, error) {
	return s.ticketList(ctx, "/v1/staff/queue/skipped")
}

func (s *Service) ticketList(ctx context.Context, path string) ([]models.Ticket, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return decodeTicketList(raw)
}

func decodeTicketList(raw json.RawMessage) ([]models.Ticket, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var tickets []models.Ticket
	if err := json.Unmarshal(raw, &tickets); err == nil {
		return tickets, nil
	}

	var grouped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &grouped); err != nil {
		return nil, errors.New("staff: unexpected queue payload")
	}
	for _, entry := range grouped {
		var group []models.Ticket
		if err := json.Unmarshal(entry, &group); err == nil {
			tickets = append(tickets, group...)
			continue
		}
		var single models.Ticket
		if err := json.Unmarshal(entry, &single); err == nil && single.ID != "" {
			tickets = append(tickets, single)
		}
	}
	return tickets, nil
}

type callNextRequest struct {
	QueueTypeID string `json:"queue_type_id"`
	DoctorID    string `json:"doctor_id,omitempty"`
}

// CallNext calls the next waiting ticket. The endpoint requires a
// queue_type_id, which is inferred from the current waiting list; an empty
// list means there is nothing to call.
func (s *Service) CallNext(ctx context.Context, doctorID string) (models.Ticket, error) {
	tickets, err := s.Queue(ctx)
	if err != nil {
		return models.Ticket{}, err
	}
	if len(tickets) == 0 {
		return models.Ticket{}, ErrEmptyQueue
	}

	var called models.Ticket
	err = s.client.Post(ctx, "/v1/staff/queue/call-next", callNextRequest{
		QueueTypeID: tickets[0].QueueTypeID,
		DoctorID:    doctorID,
	}, &called)
	if err != nil {
		return models.Ticket{}, err
	}
	return called, nil
}

// Skip parks the ticket at the back of the queue.
func (s *Service) Skip(ctx context.Context, ticketID string) (models.Ticket, error) {
	return s.action(ctx, ticketID, "skip")
}

// Recall announces the same ticket again.
func (s *Service) Recall(ctx context.Context, ticketID string) (models.Ticket, error) {
	return s.action(ctx, ticketID, "recall")
}

// RecallSkipped moves a skipped ticket back to the waiting list.
func (s *Service) RecallSkipped(ctx context.Context, ticketID string) (models.Ticket, error) {
	return s.action(ctx, ticketID, "recall-skipped")
}

// StartService moves a called ticket into serving.
func (s *Service) StartService(ctx context.Context, ticketID string) (models.Ticket, error) {
	return s.action(ctx, ticketID, "start-service")
}

// FinishService completes the serving ticket.
func (s *Service) FinishService(ctx context.Context, ticketID string) (models.Ticket, error) {
	return s.action(ctx, ticketID, "finish-service")
}

func (s *Service) action(ctx context.Context, ticketID, action string) (models.Ticket, error) {
	var ticket models.Ticket
	err := s.client.Post(ctx, "/v1/staff/queue/"+ticketID+"/"+action, nil, &ticket)
	if err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

// Stats is the staff dashboard summary for the assigned poly. TotalToday
// excludes cancelled tickets.
type Stats struct {
	TotalToday        int    `json:"total_today"`
	Waiting           int    `json:"waiting"`
	Serving           int    `json:"serving"`
	Done              int    `json:"done"`
	AvgWaitingMinutes int    `json:"avg_waiting_time"`
	PolyID            string `json:"poly_id,omitempty"`
	PolyName          string `json:"poly_name"`
	PolyStatus        string `json:"poly_status"`
}

type dashboardPayload struct {
	Staff *struct {
		Poly *models.Poly `json:"poly"`
	} `json:"staff"`
	Dashboard []struct {
		Waiting        int     `json:"waiting"`
		Serving        int     `json:"serving"`
		Done           int     `json:"done"`
		AvgWaitingTime float64 `json:"avg_waiting_time"`
	} `json:"dashboard"`
}

// DashboardStats reshapes the nested dashboard payload into a flat summary.
func (s *Service) DashboardStats(ctx context.Context) (Stats, error) {
	var payload dashboardPayload
	if err := s.client.Get(ctx, "/v1/staff/dashboard", &payload); err != nil {
		return Stats{}, err
	}

	stats := Stats{PolyName: "Poli", PolyStatus: "inactive"}
	if len(payload.Dashboard) > 0 {
		entry := payload.Dashboard[0]
		stats.Waiting = entry.Waiting
		stats.Serving = entry.Serving
		stats.Done = entry.Done
		stats.AvgWaitingMinutes = int(math.Round(entry.AvgWaitingTime))
		stats.TotalToday = entry.Waiting + entry.Serving + entry.Done
	}
	if payload.Staff != nil && payload.Staff.Poly != nil {
		poly := payload.Staff.Poly
		stats.PolyID = poly.ID
		stats.PolyName = poly.Name
		if poly.IsActive {
			stats.PolyStatus = "active"
		}
	}
	return stats, nil
}
