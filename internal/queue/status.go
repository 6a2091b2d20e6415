package queue

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/furqon2004/antrian-rs-client/internal/api"
	"github.com/furqon2004/antrian-rs-client/internal/models"
)

// StatusPayload is the status endpoint's response body. The ticket may be
// nested under "ticket" or the payload may itself be the ticket; every other
// field is optional and decoded defensively.
type StatusPayload struct {
	Ticket            *TicketInfo    `json:"ticket"`
	CurrentQueue      *CurrentQueue  `json:"current_queue"`
	AIPrediction      *AIPrediction  `json:"ai_prediction"`
	QueuesAhead       *int           `json:"queues_ahead"`
	QueuesAheadDoctor *int           `json:"queues_ahead_doctor"`
	WaitingCount      *int           `json:"waiting_count"`
	WaitingList       []WaitingEntry `json:"waiting_list"`
	WaitingTickets    []WaitingEntry `json:"waiting_tickets"`
	TotalDoctors      int            `json:"total_doctors"`
	QueueLoad         int            `json:"queue_load"`
	EstimatedMinutes  float64        `json:"estimated_waiting_minutes"`
	Doctor            *models.Doctor `json:"doctor"`
}

type TicketInfo struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	QueueNumber int            `json:"queue_number"`
	DoctorID    string         `json:"doctor_id"`
	Doctor      *models.Doctor `json:"doctor"`
}

type CurrentQueue struct {
	QueueNumber   int    `json:"queue_number"`
	DisplayNumber string `json:"display_number,omitempty"`
}

type AIPrediction struct {
	EstimatedMinutes float64  `json:"estimated_minutes"`
	Message          string   `json:"message"`
	Factors          *Factors `json:"factors"`
}

type Factors struct {
	QueueLoad *int `json:"queue_load"`
}

// StatusResult is the reconciled answer to "where am I in the queue".
type StatusResult struct {
	Exists           bool
	Status           string
	Ahead            int
	EstimatedMinutes int
	Message          string
	DoctorID         string
	DoctorName       string
	PerDoctor        bool
	CurrentQueue     *CurrentQueue
}

type Checker struct {
	client *api.Client
	logger zerolog.Logger
}

func NewChecker(client *api.Client, logger zerolog.Logger) *Checker {
	return &Checker{client: client, logger: logger}
}

// Status fetches the raw status payload for a ticket token.
func (c *Checker) Status(ctx context.Context, token string) (*StatusPayload, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &api.Error{StatusCode: 400, Message: "ID tiket tidak valid"}
	}

	var raw json.RawMessage
	if err := c.client.Get(ctx, "/v1/customer/queue/status/"+token, &raw); err != nil {
		return nil, err
	}
	return decodeStatus(raw)
}

// Check resolves whether the ticket identified by key is still active and,
// if so, its reconciled position and ETA. A failed primary lookup falls back
// to scanning the queue type's active queue; if that also cannot be reached
// the ticket is assumed to still exist, so a backend outage never reports a
// live ticket as gone.
func (c *Checker) Check(ctx context.Context, key, queueTypeID string) StatusResult {
	payload, err := c.Status(ctx, key)
	if err == nil {
		return c.resolve(payload)
	}
	c.logger.Debug().Str("ticket", key).Err(err).Msg("direct status check failed")

	if queueTypeID == "" {
		return StatusResult{Exists: true}
	}
	return c.checkViaQueueType(ctx, key, queueTypeID)
}

func (c *Checker) resolve(payload *StatusPayload) StatusResult {
	ticket := payload.Ticket
	if ticket == nil {
		ticket = &TicketInfo{}
	}

	if models.IsTerminalStatus(ticket.Status) {
		return StatusResult{Exists: false, Status: ticket.Status}
	}

	signals := payload.signals()
	estimate := signals.Estimate()

	doctorName := signals.DoctorName
	return StatusResult{
		Exists:           true,
		Status:           ticket.Status,
		Ahead:            estimate.Ahead,
		EstimatedMinutes: estimate.EstimatedMinutes,
		Message:          estimate.Message,
		DoctorID:         ticket.DoctorID,
		DoctorName:       doctorName,
		PerDoctor:        estimate.PerDoctor,
		CurrentQueue:     payload.CurrentQueue,
	}
}

func (p *StatusPayload) signals() Signals {
	ticket := p.Ticket
	if ticket == nil {
		ticket = &TicketInfo{}
	}

	signals := Signals{
		QueueNumber:             ticket.QueueNumber,
		QueuesAhead:             p.QueuesAhead,
		QueuesAheadDoctor:       p.QueuesAheadDoctor,
		WaitingCount:            p.WaitingCount,
		DoctorID:                ticket.DoctorID,
		WaitingList:             p.WaitingList,
		TotalDoctors:            p.TotalDoctors,
		OriginalEstimateMinutes: p.EstimatedMinutes,
		OriginalQueueLength:     p.QueueLoad,
	}
	if len(signals.WaitingList) == 0 {
		signals.WaitingList = p.WaitingTickets
	}
	if p.CurrentQueue != nil {
		n := p.CurrentQueue.QueueNumber
		signals.CurrentQueueNumber = &n
	}
	if p.AIPrediction != nil {
		if p.AIPrediction.Factors != nil {
			signals.AIQueueLoad = p.AIPrediction.Factors.QueueLoad
		}
		if p.AIPrediction.EstimatedMinutes > 0 {
			signals.OriginalEstimateMinutes = p.AIPrediction.EstimatedMinutes
		}
	}
	switch {
	case ticket.Doctor != nil:
		signals.DoctorName = ticket.Doctor.Name
	case p.Doctor != nil:
		signals.DoctorName = p.Doctor.Name
	}
	return signals
}

type queueTypeDetail struct {
	ActiveQueue []queueEntry `json:"active_queue"`
	Queues      []queueEntry `json:"queues"`
}

type queueEntry struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// checkViaQueueType is the secondary lookup: absence from the active queue
// means the ticket finished, while an unreachable endpoint fails open.
func (c *Checker) checkViaQueueType(ctx context.Context, key, queueTypeID string) StatusResult {
	var detail queueTypeDetail
	if err := c.client.Get(ctx, "/v1/customer/queue-types/"+queueTypeID, &detail); err != nil {
		c.logger.Debug().Str("queue_type", queueTypeID).Err(err).Msg("queue type fallback failed")
		return StatusResult{Exists: true}
	}

	entries := detail.ActiveQueue
	if len(entries) == 0 {
		entries = detail.Queues
	}
	for _, entry := range entries {
		if entry.ID == key {
			return StatusResult{Exists: true, Status: entry.Status}
		}
	}
	return StatusResult{Exists: false, Status: models.StatusDone}
}

// decodeStatus accepts both response shapes: ticket nested under "ticket"
// and the payload being the ticket itself.
func decodeStatus(raw json.RawMessage) (*StatusPayload, error) {
	var payload StatusPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Ticket == nil {
		var flat TicketInfo
		if err := json.Unmarshal(raw, &flat); err == nil && flat.Status != "" {
			payload.Ticket = &flat
		}
	}
	return &payload, nil
}
