package storage

import (
	"errors"
	"time"

	"github.com/furqon2004/antrian-rs-client/internal/models"
)

var ErrTicketNotFound = errors.New("ticket not found")

const (
	// TicketExpiry is how long a ticket stays in the active list before
	// pruning, measured from its creation timestamp.
	TicketExpiry = 24 * time.Hour

	// HistoryLimit caps the history list, most recent first.
	HistoryLimit = 50
)

// TicketRepository is the device-local ticket cache. Lookup keys match a
// ticket's id or token interchangeably, as the backend uses both across
// endpoints. Implementations treat unreadable or corrupt state as empty
// rather than failing reads.
type TicketRepository interface {
	// Save appends a ticket to the active list, stamping CreatedAt when
	// unset.
	Save(ticket models.Ticket) error

	// Tickets returns the active list with expired entries pruned and the
	// pruned result persisted.
	Tickets() ([]models.Ticket, error)

	// ActiveTicket returns the first ticket whose status is in
	// models.ActiveStatuses.
	ActiveTicket() (models.Ticket, bool, error)

	// TicketForQueue returns the ticket for a queue type, if any.
	TicketForQueue(queueTypeID string) (models.Ticket, bool, error)

	// UpdateStatus sets the status of the ticket matching key by id or
	// token. Missing tickets are not an error; the sync loop races the
	// expiry pruning.
	UpdateStatus(key, status string) error

	// Remove deletes the ticket matching key by id or token.
	Remove(key string) error

	// MoveToHistory relocates the ticket matching key from the active list
	// to the history list, forcing status DONE and stamping completion.
	// Returns ErrTicketNotFound when no active ticket matches.
	MoveToHistory(key string) error

	// History returns the capped history list, most recent first.
	History() ([]models.Ticket, error)

	Clear() error
	ClearHistory() error
}
