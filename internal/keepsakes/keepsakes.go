// Package keepsakes is the user's item archive: objects kept for their
// memories rather than sold, each with a story and a few photos.
package keepsakes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxPhotos bounds the photos attached to one keepsake
const MaxPhotos = 10

var (
	ErrNotFound  = errors.New("keepsake not found")
	ErrDuplicate = errors.New("session already added a keepsake")
)

// Source records where a keepsake was created
type Source string

const (
	// SourceManual is the archive's own form: a name and at least one photo
	SourceManual Source = "manual"
	// SourceDisposal is the shortcut on the disposal screen; photos are optional
	SourceDisposal Source = "disposal"
)

// Keepsake is one archived object
type Keepsake struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id,omitempty"`
	Source      Source    `json:"source"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Photos      []string  `json:"photos"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the keepsake before it is stored
func (k Keepsake) Validate() error {
	if strings.TrimSpace(k.UserID) == "" {
		return errors.New("keepsake: missing user")
	}
	if strings.TrimSpace(k.Name) == "" {
		return errors.New("keepsake: missing name")
	}
	if len(k.Photos) > MaxPhotos {
		return fmt.Errorf("keepsake: at most %d photos, got %d", MaxPhotos, len(k.Photos))
	}
	for i, p := range k.Photos {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("keepsake: photo %d is empty", i)
		}
	}
	switch k.Source {
	case SourceManual:
		if len(k.Photos) == 0 {
			return errors.New("keepsake: at least one photo is required")
		}
	case SourceDisposal:
		if k.SessionID == "" {
			return errors.New("keepsake: disposal keepsake without session")
		}
	default:
		return fmt.Errorf("keepsake: unknown source %q", k.Source)
	}
	return nil
}

// Store persists keepsakes
type Store interface {
	// Add validates k, assigns ID and CreatedAt and stores it. A session
	// adds at most one keepsake: a second Add returns ErrDuplicate and fills
	// k with the stored one.
	Add(ctx context.Context, k *Keepsake) error
	Get(ctx context.Context, id string) (Keepsake, error)
	// List returns the user's keepsakes, newest first
	List(ctx context.Context, userID string) ([]Keepsake, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps keepsakes in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]Keepsake
	bySess map[string]string
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]Keepsake),
		bySess: make(map[string]string),
		now:    time.Now,
	}
}

func (s *MemoryStore) Add(ctx context.Context, k *Keepsake) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := k.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if k.SessionID != "" {
		if id, ok := s.bySess[k.SessionID]; ok {
			*k = s.items[id]
			return ErrDuplicate
		}
	}
	k.ID = uuid.NewString()
	k.CreatedAt = s.now().UTC()
	k.Photos = append([]string(nil), k.Photos...)
	s.items[k.ID] = *k
	if k.SessionID != "" {
		s.bySess[k.SessionID] = k.ID
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Keepsake, error) {
	if err := ctx.Err(); err != nil {
		return Keepsake{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.items[id]
	if !ok {
		return Keepsake{}, ErrNotFound
	}
	return k, nil
}

func (s *MemoryStore) List(ctx context.Context, userID string) ([]Keepsake, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Keepsake
	for _, k := range s.items {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	if k.SessionID != "" && s.bySess[k.SessionID] == id {
		delete(s.bySess, k.SessionID)
	}
	return nil
}
