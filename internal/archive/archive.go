// Package archive stores the QR tickets produced by locker transactions so
// they can be retrieved later from the QR code section of the app.
package archive

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("ticket not found")
	ErrDuplicate = errors.New("session already has a ticket")
)

// Ticket is a retrievable QR record
type Ticket struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Item       string    `json:"item"`
	UnlockCode string    `json:"unlock_code"`
	QRData     string    `json:"qr_data"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists tickets
type Store interface {
	// Save assigns ID and CreatedAt and stores the ticket. A session can own
	// at most one ticket: saving a second one returns ErrDuplicate and fills
	// t with the ticket already stored for the session.
	Save(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, id string) (Ticket, error)
	// List returns the user's tickets, newest first
	List(ctx context.Context, userID string) ([]Ticket, error)
}

// MemoryStore keeps tickets in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
	bySess  map[string]string
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[string]Ticket),
		bySess:  make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, t *Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.SessionID != "" {
		if id, ok := s.bySess[t.SessionID]; ok {
			*t = s.tickets[id]
			return ErrDuplicate
		}
	}
	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()
	s.tickets[t.ID] = *t
	if t.SessionID != "" {
		s.bySess[t.SessionID] = t.ID
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Ticket, error) {
	if err := ctx.Err(); err != nil {
		return Ticket{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return Ticket{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) List(ctx context.Context, userID string) ([]Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Ticket
	for _, t := range s.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
