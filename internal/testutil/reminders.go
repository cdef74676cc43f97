package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alanyang/threadkeeper/internal/domain/reminder"
	portreminder "github.com/alanyang/threadkeeper/internal/port/reminder"
)

// FakeReminderStore is an in-memory worker API for reminders. It applies the
// same due and retention rules the worker does.
type FakeReminderStore struct {
	mu      sync.Mutex
	now     func() time.Time
	nextID  int64
	items   map[int64]reminder.Reminder
	deletes []int64

	CreateErr error
	DueErr    error
	DeleteErr error
}

func NewFakeReminderStore(now func() time.Time) *FakeReminderStore {
	return &FakeReminderStore{now: now, items: make(map[int64]reminder.Reminder)}
}

// Seed stores r as-is, assigning an id when it has none.
func (s *FakeReminderStore) Seed(r reminder.Reminder) reminder.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		s.nextID++
		r.ID = s.nextID
	} else if r.ID > s.nextID {
		s.nextID = r.ID
	}
	s.items[r.ID] = r
	return r
}

func (s *FakeReminderStore) Get(id int64) (reminder.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	return r, ok
}

func (s *FakeReminderStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Deletes returns every id passed to Delete, including failed attempts.
func (s *FakeReminderStore) Deletes() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.deletes...)
}

func (s *FakeReminderStore) Create(_ context.Context, r reminder.Reminder) (int64, error) {
	if s.CreateErr != nil {
		return 0, s.CreateErr
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	r.ID = 0
	return s.Seed(r).ID, nil
}

func (s *FakeReminderStore) Due(_ context.Context) ([]reminder.Reminder, error) {
	if s.DueErr != nil {
		return nil, s.DueErr
	}
	now := s.now()
	return s.filter(func(r reminder.Reminder) bool { return r.IsDue(now) }), nil
}

func (s *FakeReminderStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.items, id)
	return nil
}

func (s *FakeReminderStore) ListByUser(_ context.Context, userID string) ([]reminder.Reminder, error) {
	return s.filter(func(r reminder.Reminder) bool { return r.UserID == userID }), nil
}

func (s *FakeReminderStore) ListByGuild(_ context.Context, guildID string) ([]reminder.Reminder, error) {
	return s.filter(func(r reminder.Reminder) bool { return r.GuildID == guildID }), nil
}

func (s *FakeReminderStore) Cleanup(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, r := range s.items {
		if r.Expired(now) {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *FakeReminderStore) filter(keep func(reminder.Reminder) bool) []reminder.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []reminder.Reminder
	for _, r := range s.items {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ portreminder.Store = (*FakeReminderStore)(nil)
