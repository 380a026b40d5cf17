// Package reminders owns the reminder list: adding, completing and deleting reminders,
// persisting the whole list after every change, and scheduling notifications for new
// reminders.
package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/samber/mo"

	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/logger"
	"github.com/julianstephens/remindr/internal/models"
	"github.com/julianstephens/remindr/internal/recurrence"
	"github.com/julianstephens/remindr/internal/storage"
)

// Scheduler hands trigger instructions to the notification system.
type Scheduler interface {
	RequestPermission(ctx context.Context) (bool, error)
	Schedule(ctx context.Context, in models.Instruction) error
}

// Filter selects reminders by completion state.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterActive Filter = "active"
	FilterDone   Filter = "done"
)

// ParseFilter parses a filter name. Empty input means all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive, FilterDone:
		return Filter(s), nil
	default:
		return "", fmt.Errorf("invalid filter %q (must be all, active, or done)", s)
	}
}

// Store is the single owner of the reminder list. All operations are serialised, and
// every mutation is applied in memory before the whole list is written back.
type Store struct {
	mu sync.Mutex

	kv        storage.KV
	key       string
	scheduler Scheduler
	notify    bool
	now       func() time.Time
	newID     func() string

	reminders []models.Reminder
	// held keeps persisted records that no longer decode so writes carry them along.
	held []json.RawMessage
}

type Option func(*Store)

// WithScheduler sets the notification scheduler. Scheduling stays off until
// RequestNotifications is granted.
func WithScheduler(s Scheduler) Option {
	return func(st *Store) { st.scheduler = s }
}

// WithKey overrides the storage key the list is persisted under.
func WithKey(key string) Option {
	return func(st *Store) { st.key = key }
}

// WithClock overrides the time source used for planning.
func WithClock(now func() time.Time) Option {
	return func(st *Store) { st.now = now }
}

// WithIDs overrides the id generator.
func WithIDs(newID func() string) Option {
	return func(st *Store) { st.newID = newID }
}

func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		key:       constants.StorageKey,
		now:       time.Now,
		newID:     models.NewID,
		reminders: []models.Reminder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestNotifications asks the scheduler for permission and enables scheduling when it
// is granted. A denial is logged once and is not an error.
func (s *Store) RequestNotifications(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return false
	}
	granted, err := s.scheduler.RequestPermission(ctx)
	switch {
	case err != nil:
		logger.Warn("Notifications unavailable, reminders will not fire", "error", err)
	case !granted:
		logger.Warn("Notification permission denied, reminders will not fire")
	}
	s.notify = granted && err == nil
	return s.notify
}

// NotificationsEnabled reports whether Add schedules notifications.
func (s *Store) NotificationsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notify
}

// Load replaces the in-memory list with the persisted one. A missing, unreadable or
// unparseable list loads as empty. Records that fail to decode are skipped but kept in
// storage.
func (s *Store) Load(ctx context.Context) []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.read(ctx)
	snap := res.OrElse(snapshot{reminders: []models.Reminder{}})
	s.reminders, s.held = snap.reminders, snap.held
	if res.IsError() {
		logger.Warn("Could not load reminders, starting empty", "key", s.key, "error", res.Error())
	}
	return cloneAll(s.reminders)
}

// Reload picks up changes other processes wrote to storage. Unlike Load, a failed read
// keeps the in-memory list.
func (s *Store) Reload(ctx context.Context) []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.read(ctx)
	if snap, ok := res.Get(); ok {
		s.reminders, s.held = snap.reminders, snap.held
	} else {
		logger.Warn("Could not reload reminders, keeping current list", "key", s.key, "error", res.Error())
	}
	return cloneAll(s.reminders)
}

// Add stores a new reminder at the head of the list and schedules its notifications.
func (s *Store) Add(ctx context.Context, p models.Payload) models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := models.NewReminder(s.newID(), p)
	s.reminders = slices.Insert(s.reminders, 0, r)

	settle("persist", s.persist(ctx))
	if s.notify {
		settle("schedule", s.schedule(ctx, r))
	}
	return r.Clone()
}

// ToggleDone flips the done flag of a reminder. Unknown ids are a no-op.
func (s *Store) ToggleDone(ctx context.Context, id string) (models.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return models.Reminder{}, false
	}
	s.reminders[i].Done = !s.reminders[i].Done

	settle("persist", s.persist(ctx))
	return s.reminders[i].Clone(), true
}

// Delete removes a reminder. Unknown ids are a no-op. Notifications already scheduled
// for it are left in place.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false
	}
	s.reminders = slices.Delete(s.reminders, i, i+1)

	settle("persist", s.persist(ctx))
	return true
}

// List returns copies of the reminders matching f, most recent first.
func (s *Store) List(f Filter) []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		if f == FilterActive && r.Done || f == FilterDone && !r.Done {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

func (s *Store) Get(id string) (models.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(id); i >= 0 {
		return s.reminders[i].Clone(), true
	}
	return models.Reminder{}, false
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.reminders, func(r models.Reminder) bool { return r.ID == id })
}

type snapshot struct {
	reminders []models.Reminder
	held      []json.RawMessage
}

func (s *Store) read(ctx context.Context) mo.Result[snapshot] {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return mo.Err[snapshot](fmt.Errorf("failed to read reminders: %w", err))
	}
	if !found {
		return mo.Ok(snapshot{reminders: []models.Reminder{}})
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.quarantine(ctx, raw)
		return mo.Err[snapshot](fmt.Errorf("failed to parse reminders: %w", err))
	}

	snap := snapshot{reminders: make([]models.Reminder, 0, len(records))}
	for i, rec := range records {
		var r models.Reminder
		if err := json.Unmarshal(rec, &r); err != nil {
			logger.Warn("Skipping unreadable reminder", "key", s.key, "index", i, "error", err)
			snap.held = append(snap.held, rec)
			continue
		}
		snap.reminders = append(snap.reminders, r)
	}
	return mo.Ok(snap)
}

// quarantine copies a list that is not valid JSON aside before the next write replaces it.
func (s *Store) quarantine(ctx context.Context, raw string) {
	key := s.key + constants.UnreadableSuffix
	if err := s.kv.Set(ctx, key, raw); err != nil {
		logger.Error("Failed to keep unreadable reminders", "key", key, "error", err)
		return
	}
	logger.Warn("Kept unreadable reminders aside", "key", key)
}

// persist writes the whole list, followed by any held records, and yields the number of
// reminders written.
func (s *Store) persist(ctx context.Context) mo.Result[int] {
	records := make([]any, 0, len(s.reminders)+len(s.held))
	for _, r := range s.reminders {
		records = append(records, r)
	}
	for _, rec := range s.held {
		records = append(records, rec)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return mo.Err[int](fmt.Errorf("failed to serialize reminders: %w", err))
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return mo.Err[int](fmt.Errorf("failed to write reminders: %w", err))
	}
	return mo.Ok(len(s.reminders))
}

// schedule plans r and hands every instruction to the scheduler, continuing past
// failures. It yields the number of instructions scheduled.
func (s *Store) schedule(ctx context.Context, r models.Reminder) mo.Result[int] {
	plan, err := recurrence.Plan(r, s.now())
	if err != nil {
		if errors.Is(err, recurrence.ErrFireTimeInPast) {
			logger.Warn("Reminder time has passed, not scheduling", "reminder", r.ID)
			return mo.Ok(0)
		}
		return mo.Err[int](err)
	}

	scheduled := 0
	var errs []error
	for _, in := range plan {
		if err := s.scheduler.Schedule(ctx, in); err != nil {
			logger.Error("Failed to schedule notification", "reminder", r.ID, "trigger", in.Trigger.String(), "error", err)
			errs = append(errs, err)
			continue
		}
		scheduled++
	}
	if scheduled == 0 && len(errs) > 0 {
		return mo.Err[int](errors.Join(errs...))
	}
	return mo.Ok(scheduled)
}

// settle is where persistence and scheduling outcomes end: failures are logged and
// never reach the caller.
func settle(op string, res mo.Result[int]) {
	if err := res.Error(); err != nil {
		logger.Error("Reminder "+op+" failed", "error", err)
		return
	}
	logger.Debug("Reminder "+op+" done", "count", res.MustGet())
}

func cloneAll(list []models.Reminder) []models.Reminder {
	out := make([]models.Reminder, len(list))
	for i, r := range list {
		out[i] = r.Clone()
	}
	return out
}
