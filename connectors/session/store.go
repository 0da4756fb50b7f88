package session

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"calls-dashboard/domain/calls"

	"github.com/google/uuid"
)

// Inbox is the session fed by the uploads directory watcher.
const Inbox = "inbox"

// Store keeps one ingested table per session, with TTL and LRU eviction.
type Store struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
}

type entry struct {
	id        string
	table     calls.Table
	expiresAt time.Time
}

// NewStore creates a store. maxSize <= 0 disables size eviction and ttl <= 0 disables expiry.
func NewStore(maxSize int, ttl time.Duration) *Store {
	return &Store{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// Put stores t under a fresh session id.
func (s *Store) Put(t calls.Table) string {
	id := uuid.NewString()
	s.Set(id, t)
	return id
}

// Set replaces the table of session id.
func (s *Store) Set(id string, t calls.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[id]; ok {
		e := elem.Value.(*entry)
		e.table = t
		e.expiresAt = s.expiry()
		s.lru.MoveToFront(elem)
		return
	}
	elem := s.lru.PushFront(&entry{id: id, table: t, expiresAt: s.expiry()})
	s.items[id] = elem
	for s.maxSize > 0 && s.lru.Len() > s.maxSize {
		s.removeElement(s.lru.Back())
	}
}

// Get returns the table of session id and refreshes its lifetime.
func (s *Store) Get(id string) (calls.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[id]
	if !ok {
		return calls.Table{}, false
	}
	e := elem.Value.(*entry)
	if s.expired(e) {
		s.removeElement(elem)
		return calls.Table{}, false
	}
	e.expiresAt = s.expiry()
	s.lru.MoveToFront(elem)
	return e.table, true
}

// Delete drops a session; it reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	elem, ok := s.items[id]
	if ok {
		s.removeElement(elem)
	}
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// CleanExpired removes expired sessions and returns how many were removed.
func (s *Store) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for elem := s.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if s.expired(elem.Value.(*entry)) {
			s.removeElement(elem)
			n++
		}
		elem = prev
	}
	return n
}

// StartCleanup runs CleanExpired every interval until ctx is done.
func (s *Store) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.CleanExpired(); n > 0 {
					slog.Info("session.cleanup", "removed", n)
				}
			}
		}
	}()
}

func (s *Store) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *Store) expired(e *entry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}

func (s *Store) removeElement(elem *list.Element) {
	s.lru.Remove(elem)
	delete(s.items, elem.Value.(*entry).id)
}
