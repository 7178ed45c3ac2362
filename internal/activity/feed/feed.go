// Package feed maintains the locally displayed activity list and
// reconciles it with the server: paged fetches, optimistic mark-read
// and delete, day grouping, and unread-count broadcasts.
//
// The optimistic policies are deliberate: mark-read flips local state
// before the server call settles and is never rolled back on failure,
// and a failed server delete leaves client and server inconsistent
// until the next full refresh. Responsiveness wins over strict
// consistency here.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/billfold/billfold/internal/activity/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

// Backend is the server surface the feed reconciles against.
type Backend interface {
	FetchPage(ctx context.Context, offset, limit int) ([]domain.Event, error)
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id snowflake.ID) error
}

// Group is one calendar-day section of the feed.
type Group struct {
	Header string
	Day    time.Time
	Events []domain.Event
}

// Feed is the local view state. All methods are safe for concurrent
// use from UI callbacks.
type Feed struct {
	mu         sync.Mutex
	backend    Backend
	log        *zap.Logger
	loc        *time.Location
	now        func() time.Time
	pageSize   int
	events     []domain.Event
	reachedEnd bool
	listeners  []func(int64)
	inflight   sync.WaitGroup
}

type Option func(*Feed)

// WithLocation sets the timezone used for day grouping.
func WithLocation(loc *time.Location) Option {
	return func(f *Feed) { f.loc = loc }
}

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

// WithPageSize overrides the fixed fetch page size.
func WithPageSize(size int) Option {
	return func(f *Feed) {
		if size > 0 {
			f.pageSize = size
		}
	}
}

func New(backend Backend, log *zap.Logger, opts ...Option) *Feed {
	f := &Feed{
		backend:  backend,
		log:      log,
		loc:      time.Local,
		now:      time.Now,
		pageSize: domain.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = zap.NewNop()
	}
	return f
}

// OnUnreadChange registers a listener notified exactly once per settle
// with the new unread count.
func (f *Feed) OnUnreadChange(fn func(int64)) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

// Refresh replaces the list with the first page. This is also the only
// self-heal for divergence left behind by swallowed delete failures.
func (f *Feed) Refresh(ctx context.Context) error {
	rows, err := f.backend.FetchPage(ctx, 0, f.pageSize)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.events = rows
	f.reachedEnd = len(rows) < f.pageSize
	unread := f.unreadLocked()
	listeners := f.snapshotListenersLocked()
	f.mu.Unlock()

	notify(listeners, unread)
	return nil
}

// LoadMore appends the next page. It is a no-op once the end of data
// has been reached.
func (f *Feed) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if f.reachedEnd {
		f.mu.Unlock()
		return nil
	}
	offset := len(f.events)
	f.mu.Unlock()

	rows, err := f.backend.FetchPage(ctx, offset, f.pageSize)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.events = append(f.events, rows...)
	f.reachedEnd = len(rows) < f.pageSize
	f.mu.Unlock()

	return nil
}

// ReachedEnd reports whether a fetch has returned a short page.
func (f *Feed) ReachedEnd() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reachedEnd
}

// Events returns a copy of the current list, newest first.
func (f *Feed) Events() []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Event(nil), f.events...)
}

// UnreadCount counts locally visible unread events.
func (f *Feed) UnreadCount() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unreadLocked()
}

// MarkAllRead stamps every visible unread event immediately and issues
// the server call in the background. The local flip is never rolled
// back: if the server call fails the divergence is logged and left for
// the next refresh.
func (f *Feed) MarkAllRead(ctx context.Context) {
	now := f.now().UTC()

	f.mu.Lock()
	flipped := false
	for i := range f.events {
		if f.events[i].ReadAt == nil {
			stamp := now
			f.events[i].ReadAt = &stamp
			flipped = true
		}
	}
	listeners := f.snapshotListenersLocked()
	f.mu.Unlock()

	if !flipped {
		return
	}

	notify(listeners, 0)

	f.inflight.Add(1)
	go func() {
		defer f.inflight.Done()
		if err := f.backend.MarkAllRead(ctx); err != nil {
			f.log.Warn("mark-read server call failed; local state kept", zap.Error(err))
		}
	}()
}

// Delete removes the event from the visible list immediately and
// issues a best-effort server delete. Server failures are swallowed.
func (f *Feed) Delete(ctx context.Context, id snowflake.ID) {
	f.mu.Lock()
	wasUnread := false
	kept := f.events[:0]
	for _, event := range f.events {
		if event.ID == id {
			wasUnread = event.Unread()
			continue
		}
		kept = append(kept, event)
	}
	f.events = kept
	unread := f.unreadLocked()
	listeners := f.snapshotListenersLocked()
	f.mu.Unlock()

	if wasUnread {
		notify(listeners, unread)
	}

	f.inflight.Add(1)
	go func() {
		defer f.inflight.Done()
		if err := f.backend.Delete(ctx, id); err != nil {
			f.log.Debug("activity delete failed; list already updated", zap.Error(err))
		}
	}()
}

// Settle blocks until outstanding background server calls finish.
func (f *Feed) Settle() {
	f.inflight.Wait()
}

// Groups sections the list by local calendar day, newest first, with
// Today/Yesterday headers for the two most recent days.
func (f *Feed) Groups() []Group {
	f.mu.Lock()
	events := append([]domain.Event(nil), f.events...)
	f.mu.Unlock()

	today := dayOf(f.now().In(f.loc))
	yesterday := today.AddDate(0, 0, -1)

	var groups []Group
	for _, event := range events {
		day := dayOf(event.CreatedAt.In(f.loc))
		if len(groups) == 0 || !groups[len(groups)-1].Day.Equal(day) {
			groups = append(groups, Group{
				Header: headerFor(day, today, yesterday),
				Day:    day,
			})
		}
		groups[len(groups)-1].Events = append(groups[len(groups)-1].Events, event)
	}
	return groups
}

func (f *Feed) unreadLocked() int64 {
	var count int64
	for _, event := range f.events {
		if event.Unread() {
			count++
		}
	}
	return count
}

func (f *Feed) snapshotListenersLocked() []func(int64) {
	return append(([]func(int64))(nil), f.listeners...)
}

func notify(listeners []func(int64), unread int64) {
	for _, fn := range listeners {
		fn(unread)
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func headerFor(day, today, yesterday time.Time) string {
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(yesterday):
		return "Yesterday"
	default:
		return day.Format("Jan 2, 2006")
	}
}
