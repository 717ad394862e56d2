// Package search suggests places while the user types an address. Every
// keystroke starts a fresh lookup; the newest result list replaces the
// previous one.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.temporal.io/sdk/log"

	"reuseit/internal/logging"
	"reuseit/internal/metrics"
)

// Completion is one geocoder suggestion
type Completion struct {
	Title    string `json:"title" yaml:"title"`
	Subtitle string `json:"subtitle" yaml:"subtitle"`
}

// Geocoder completes a partial query
type Geocoder interface {
	Complete(ctx context.Context, fragment string) ([]Completion, error)
}

// Gazetteer is a Geocoder over a fixed list of places
type Gazetteer struct {
	places []Completion
}

func NewGazetteer(places []Completion) *Gazetteer {
	return &Gazetteer{places: places}
}

// Complete matches the fragment case-insensitively against titles
func (g *Gazetteer) Complete(ctx context.Context, fragment string) ([]Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(fragment))
	if q == "" {
		return nil, nil
	}
	var out []Completion
	for _, p := range g.places {
		if strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Options configures a Session
type Options struct {
	// Markers keep only completions whose subtitle contains one of them.
	// Empty keeps everything.
	Markers  []string
	Debounce time.Duration
	Logger   log.Logger
	Metrics  *metrics.Recorder
}

// Session tracks the suggestions for one search field
type Session struct {
	geo  Geocoder
	opts Options

	ctx  context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	seq      uint64
	inflight context.CancelFunc
	closed   bool
	wg       sync.WaitGroup

	results chan []string
}

// NewSession starts a session bound to ctx
func NewSession(ctx context.Context, geo Geocoder, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	ctx, stop := context.WithCancel(ctx)
	return &Session{
		geo:     geo,
		opts:    opts,
		ctx:     ctx,
		stop:    stop,
		results: make(chan []string, 1),
	}
}

// Results delivers complete replacement lists. Only the newest undelivered
// list is kept.
func (s *Session) Results() <-chan []string {
	return s.results
}

// OnQueryChanged starts a lookup for fragment and abandons the previous one
func (s *Session) OnQueryChanged(fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.inflight != nil {
		s.inflight()
	}
	s.seq++
	ctx, cancel := context.WithCancel(s.ctx)
	s.inflight = cancel

	s.wg.Add(1)
	go s.lookup(ctx, s.seq, fragment)
}

func (s *Session) lookup(ctx context.Context, id uint64, fragment string) {
	defer s.wg.Done()

	if s.opts.Debounce > 0 {
		t := time.NewTimer(s.opts.Debounce)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return
		}
	}

	found, err := s.geo.Complete(ctx, fragment)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.opts.Logger.Warn("Address lookup failed", "fragment", fragment, "error", err)
		s.opts.Metrics.ObserveSuggestLookup(false)
		return
	}
	s.opts.Metrics.ObserveSuggestLookup(true)
	s.publish(id, s.filter(found))
}

func (s *Session) filter(found []Completion) []string {
	titles := make([]string, 0, len(found))
	for _, c := range found {
		if s.matches(c.Subtitle) {
			titles = append(titles, c.Title)
		}
	}
	return titles
}

func (s *Session) matches(subtitle string) bool {
	if len(s.opts.Markers) == 0 {
		return true
	}
	for _, m := range s.opts.Markers {
		if strings.Contains(subtitle, m) {
			return true
		}
	}
	return false
}

func (s *Session) publish(id uint64, titles []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || id != s.seq {
		return
	}
	select {
	case <-s.results:
	default:
	}
	s.results <- titles
}

// Close cancels pending lookups and closes the results channel
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
	close(s.results)
}
