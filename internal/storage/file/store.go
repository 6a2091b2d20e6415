// Package file persists the ticket cache as two JSON arrays on disk, the Go
// counterpart of the browser's queue_tickets / queue_tickets_history keys.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/furqon2004/antrian-rs-client/internal/models"
	"github.com/furqon2004/antrian-rs-client/internal/storage"
)

const (
	ticketsFile = "queue_tickets.json"
	historyFile = "queue_tickets_history.json"
)

type Store struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func (s *Store) Save(ticket models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = s.now().UTC()
	}
	tickets := s.readList(ticketsFile)
	tickets = append(tickets, ticket)
	return s.writeList(ticketsFile, tickets)
}

func (s *Store) Tickets() ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prunedTickets()
}

// prunedTickets drops entries older than the expiry window and writes the
// filtered list back when anything was dropped. Caller holds the lock.
func (s *Store) prunedTickets() ([]models.Ticket, error) {
	tickets := s.readList(ticketsFile)
	cutoff := s.now().Add(-storage.TicketExpiry)

	valid := tickets[:0]
	for _, t := range tickets {
		if t.CreatedAt.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) != len(tickets) {
		if err := s.writeList(ticketsFile, valid); err != nil {
			return nil, err
		}
	}
	return valid, nil
}

func (s *Store) ActiveTicket() (models.Ticket, bool, error) {
	tickets, err := s.Tickets()
	if err != nil {
		return models.Ticket{}, false, err
	}
	for _, t := range tickets {
		if models.IsActiveStatus(t.Status) {
			return t, true, nil
		}
	}
	return models.Ticket{}, false, nil
}

func (s *Store) TicketForQueue(queueTypeID string) (models.Ticket, bool, error) {
	tickets, err := s.Tickets()
	if err != nil {
		return models.Ticket{}, false, err
	}
	for _, t := range tickets {
		if t.QueueTypeID == queueTypeID {
			return t, true, nil
		}
	}
	return models.Ticket{}, false, nil
}

func (s *Store) UpdateStatus(key, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.prunedTickets()
	if err != nil {
		return err
	}
	changed := false
	for i := range tickets {
		if tickets[i].Matches(key) {
			tickets[i].Status = status
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.writeList(ticketsFile, tickets)
}

func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.prunedTickets()
	if err != nil {
		return err
	}
	filtered := tickets[:0]
	for _, t := range tickets {
		if !t.Matches(key) {
			filtered = append(filtered, t)
		}
	}
	return s.writeList(ticketsFile, filtered)
}

func (s *Store) MoveToHistory(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.prunedTickets()
	if err != nil {
		return err
	}

	var moved *models.Ticket
	remaining := tickets[:0]
	for _, t := range tickets {
		if moved == nil && t.Matches(key) {
			copied := t
			moved = &copied
			continue
		}
		remaining = append(remaining, t)
	}
	if moved == nil {
		return storage.ErrTicketNotFound
	}

	completedAt := s.now().UTC()
	moved.Status = models.StatusDone
	moved.CompletedAt = &completedAt

	history := s.readList(historyFile)
	history = append([]models.Ticket{*moved}, history...)
	if len(history) > storage.HistoryLimit {
		history = history[:storage.HistoryLimit]
	}
	if err := s.writeList(historyFile, history); err != nil {
		return err
	}
	return s.writeList(ticketsFile, remaining)
}

func (s *Store) History() ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readList(historyFile), nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ticketsFile)
}

func (s *Store) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(historyFile)
}

// readList swallows missing files and parse errors: a broken cache behaves
// like an empty one.
func (s *Store) readList(name string) []models.Ticket {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil
	}
	var tickets []models.Ticket
	if err := json.Unmarshal(raw, &tickets); err != nil {
		return nil
	}
	return tickets
}

func (s *Store) writeList(name string, tickets []models.Ticket) error {
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	raw, err := json.Marshal(tickets)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cache dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *Store) remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
