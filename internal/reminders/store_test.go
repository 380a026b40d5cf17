package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/remindr/internal/constants"
	"github.com/julianstephens/remindr/internal/models"
	"github.com/julianstephens/remindr/internal/recurrence"
	"github.com/julianstephens/remindr/internal/storage"
)

var now = time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

type fakeScheduler struct {
	granted   bool
	permErr   error
	failOn    map[models.Weekday]bool
	failAll   error
	scheduled []models.Instruction
}

func (f *fakeScheduler) RequestPermission(ctx context.Context) (bool, error) {
	return f.granted, f.permErr
}

func (f *fakeScheduler) Schedule(ctx context.Context, in models.Instruction) error {
	if f.failAll != nil {
		return f.failAll
	}
	if w, ok := in.Trigger.(models.WeeklyAt); ok && f.failOn[w.Weekday] {
		return fmt.Errorf("refusing %s", w.Weekday.Short())
	}
	f.scheduled = append(f.scheduled, in)
	return nil
}

// failingKV wraps a memory store and fails on demand.
type failingKV struct {
	*storage.MemoryStore
	getErr, setErr error
	writes         int
}

func (f *failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	f.writes++
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func newTestStore(t *testing.T, kv storage.KV, sched Scheduler) *Store {
	t.Helper()
	n := 0
	opts := []Option{
		WithClock(func() time.Time { return now }),
		WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	}
	if sched != nil {
		opts = append(opts, WithScheduler(sched))
	}
	s := New(kv, opts...)
	s.Load(context.Background())
	s.RequestNotifications(context.Background())
	return s
}

func build(t *testing.T, in recurrence.Input) models.Payload {
	t.Helper()
	p, err := recurrence.Build(in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return p
}

func persisted(t *testing.T, kv storage.KV) []map[string]any {
	t.Helper()
	raw, found, err := kv.Get(context.Background(), constants.StorageKey)
	if err != nil || !found {
		t.Fatalf("nothing persisted: found=%v err=%v", found, err)
	}
	var list []map[string]any
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		t.Fatalf("persisted list is not JSON: %v", err)
	}
	return list
}

func TestAdd_DrinkWater(t *testing.T) {
	kv := storage.NewMemoryStore()
	sched := &fakeScheduler{granted: true}
	s := newTestStore(t, kv, sched)

	r := s.Add(context.Background(), build(t, recurrence.Input{
		Title: "Drink water", Priority: "high", Mode: models.ModeEveryMinutes, IntervalRaw: "30",
	}))

	if r.Done {
		t.Error("new reminders must be active")
	}

	list := persisted(t, kv)
	if len(list) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(list))
	}
	rec := list[0]
	wantRule := map[string]any{"mode": "every_x_minutes", "minutes": float64(30)}
	if !reflect.DeepEqual(rec["recurrence"], wantRule) {
		t.Errorf("persisted recurrence = %v, want %v", rec["recurrence"], wantRule)
	}
	if rec["done"] != false || rec["priority"] != "high" || rec["title"] != "Drink water" {
		t.Errorf("unexpected persisted record %v", rec)
	}
	if _, ok := rec["time"]; ok {
		t.Error("repeating reminders must not persist a time")
	}

	if recurrence.Describe(r) != "Every 30 min" {
		t.Errorf("Describe() = %q", recurrence.Describe(r))
	}
	if len(sched.scheduled) != 1 || sched.scheduled[0].Trigger != (models.Interval{Seconds: 1800, Repeats: true}) {
		t.Errorf("unexpected scheduled instructions %+v", sched.scheduled)
	}
}

func TestAdd_PrependsAndPersistsWholeList(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := newTestStore(t, kv, nil)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		s.Add(ctx, build(t, recurrence.Input{Title: title, Mode: models.ModeDaily, Time: now}))
	}

	var titles []string
	for _, r := range s.List(FilterAll) {
		titles = append(titles, r.Title)
	}
	if want := []string{"third", "second", "first"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("List order = %v, want %v", titles, want)
	}
	if got := persisted(t, kv); len(got) != 3 || got[0]["title"] != "third" {
		t.Errorf("persisted list does not match memory: %v", got)
	}
}

func TestAdd_WeeklyFanOutContinuesPastFailures(t *testing.T) {
	sched := &fakeScheduler{granted: true, failOn: map[models.Weekday]bool{models.Tuesday: true}}
	s := newTestStore(t, storage.NewMemoryStore(), sched)

	s.Add(context.Background(), build(t, recurrence.Input{
		Title:        "Standup",
		Mode:         models.ModeWeekly,
		SelectedDays: []models.Weekday{1, 2, 3, 4, 5},
		Time:         time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC),
	}))

	if len(sched.scheduled) != 4 {
		t.Fatalf("expected 4 scheduled instructions (Tuesday refused), got %d", len(sched.scheduled))
	}
	for _, in := range sched.scheduled {
		if w := in.Trigger.(models.WeeklyAt); w.Weekday == models.Tuesday || w.Hour != 9 {
			t.Errorf("unexpected trigger %+v", w)
		}
	}
}

func TestAdd_SchedulerFailureStillStores(t *testing.T) {
	kv := storage.NewMemoryStore()
	sched := &fakeScheduler{granted: true, failAll: errors.New("scheduler down")}
	s := newTestStore(t, kv, sched)

	r := s.Add(context.Background(), build(t, recurrence.Input{Title: "Pills", Mode: models.ModeDaily, Time: now}))

	if _, ok := s.Get(r.ID); !ok {
		t.Error("reminder missing from memory")
	}
	if len(persisted(t, kv)) != 1 {
		t.Error("reminder missing from storage")
	}
}

func TestAdd_PastOneShotStoredNotScheduled(t *testing.T) {
	sched := &fakeScheduler{granted: true}
	s := newTestStore(t, storage.NewMemoryStore(), sched)

	r := s.Add(context.Background(), build(t, recurrence.Input{Title: "Late", Mode: models.ModeNone, Time: now.Add(-time.Hour)}))

	if _, ok := s.Get(r.ID); !ok {
		t.Error("past one-shot should still be stored")
	}
	if len(sched.scheduled) != 0 {
		t.Errorf("past one-shot should not be scheduled, got %+v", sched.scheduled)
	}
}

func TestAdd_NotificationsDenied(t *testing.T) {
	for name, sched := range map[string]*fakeScheduler{
		"denied":      {granted: false},
		"unreachable": {granted: false, permErr: errors.New("tray not running")},
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t, storage.NewMemoryStore(), sched)
			if s.NotificationsEnabled() {
				t.Fatal("notifications should be disabled")
			}
			s.Add(context.Background(), build(t, recurrence.Input{Title: "x", Mode: models.ModeDaily, Time: now}))
			if len(sched.scheduled) != 0 {
				t.Errorf("scheduled %d instructions without permission", len(sched.scheduled))
			}
			if len(s.List(FilterAll)) != 1 {
				t.Error("reminder should still be stored")
			}
		})
	}
}

func TestToggleDone(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := newTestStore(t, kv, nil)
	ctx := context.Background()

	r := s.Add(ctx, build(t, recurrence.Input{Title: "x", Mode: models.ModeDaily, Time: now}))

	got, ok := s.ToggleDone(ctx, r.ID)
	if !ok || !got.Done {
		t.Fatalf("first toggle: ok=%v done=%v", ok, got.Done)
	}
	if persisted(t, kv)[0]["done"] != true {
		t.Error("toggle was not persisted")
	}

	got, _ = s.ToggleDone(ctx, r.ID)
	if got.Done {
		t.Error("toggling twice should restore done=false")
	}

	before := s.List(FilterAll)
	if _, ok := s.ToggleDone(ctx, "absent"); ok {
		t.Error("toggling an absent id should report false")
	}
	if after := s.List(FilterAll); !reflect.DeepEqual(before, after) {
		t.Errorf("absent toggle changed the list: %v -> %v", before, after)
	}
}

func TestDelete(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := newTestStore(t, kv, nil)
	ctx := context.Background()

	keep := s.Add(ctx, build(t, recurrence.Input{Title: "keep", Mode: models.ModeDaily, Time: now}))
	drop := s.Add(ctx, build(t, recurrence.Input{Title: "drop", Mode: models.ModeDaily, Time: now}))

	if !s.Delete(ctx, drop.ID) {
		t.Fatal("Delete reported false for an existing id")
	}
	if s.Delete(ctx, "absent") {
		t.Error("Delete of an absent id should report false")
	}

	reloaded := New(kv).Load(ctx)
	if len(reloaded) != 1 || reloaded[0].ID != keep.ID {
		t.Errorf("reload after delete = %+v", reloaded)
	}
}

func TestLoad_Fallbacks(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(kv *failingKV)
	}{
		{name: "missing key", setup: func(kv *failingKV) {}},
		{name: "read error", setup: func(kv *failingKV) { kv.getErr = errors.New("disk gone") }},
		{name: "corrupt json", setup: func(kv *failingKV) { kv.MemoryStore.Set(ctx, constants.StorageKey, "{oops") }},
		{name: "json null", setup: func(kv *failingKV) { kv.MemoryStore.Set(ctx, constants.StorageKey, "null") }},
		{name: "unknown rule", setup: func(kv *failingKV) {
			kv.MemoryStore.Set(ctx, constants.StorageKey, `[{"id":"a","title":"x","priority":"low","recurrence":{"mode":"monthly"},"done":false}]`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := &failingKV{MemoryStore: storage.NewMemoryStore()}
			tt.setup(kv)

			got := New(kv).Load(ctx)
			if got == nil || len(got) != 0 {
				t.Errorf("Load() = %#v, want empty list", got)
			}
		})
	}
}

func TestLoad_ReadsPersistedRecords(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	kv.Set(ctx, constants.StorageKey, `[
		{"id":"b","title":"Gym","priority":"medium","recurrence":{"mode":"weekly","days":[1,3],"hour":18,"minute":0},"done":true},
		{"id":"a","title":"Dentist","priority":"high","recurrence":{"mode":"none"},"done":false,"time":"2026-11-02T15:00:00Z"}
	]`)

	s := New(kv)
	s.Load(ctx)

	if got := s.List(FilterDone); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("done filter = %+v", got)
	}
	active := s.List(FilterActive)
	if len(active) != 1 || active[0].Time == nil || active[0].Time.Hour() != 15 {
		t.Errorf("active filter = %+v", active)
	}
}

func TestLoad_SkipsBadRecordAndKeepsIt(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	kv.Set(ctx, constants.StorageKey, `[
		{"id":"a","title":"keep me","priority":"low","recurrence":{"mode":"daily","hour":8,"minute":0},"done":false},
		{"id":"b","title":"broken","priority":"low","recurrence":{"mode":"every_x_minutes","minutes":1.5},"done":false}
	]`)

	s := newTestStore(t, kv, nil)
	if got := s.List(FilterAll); len(got) != 1 || got[0].Title != "keep me" {
		t.Fatalf("Load kept %+v, want only the readable record", got)
	}

	s.Add(ctx, build(t, recurrence.Input{Title: "new", Mode: models.ModeDaily, Time: now}))

	list := persisted(t, kv)
	if len(list) != 3 {
		t.Fatalf("persisted %d records, want 3: %v", len(list), list)
	}
	titles := []any{list[0]["title"], list[1]["title"], list[2]["title"]}
	if !reflect.DeepEqual(titles, []any{"new", "keep me", "broken"}) {
		t.Errorf("persisted titles = %v", titles)
	}
	if got := list[2]["recurrence"].(map[string]any)["minutes"]; got != 1.5 {
		t.Errorf("held record was rewritten: minutes = %v", got)
	}
}

func TestLoad_CorruptListIsKeptAside(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	kv.Set(ctx, constants.StorageKey, "{oops")

	s := newTestStore(t, kv, nil)
	s.Add(ctx, build(t, recurrence.Input{Title: "new", Mode: models.ModeDaily, Time: now}))

	raw, found, _ := kv.Get(ctx, constants.StorageKey+constants.UnreadableSuffix)
	if !found || raw != "{oops" {
		t.Errorf("unreadable copy = %q (found=%v), want original text", raw, found)
	}
	if list := persisted(t, kv); len(list) != 1 {
		t.Errorf("persisted %d records, want 1", len(list))
	}
}

func TestReload_PicksUpOtherWriters(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	a := newTestStore(t, kv, nil)
	b := New(kv, WithIDs(func() string { return "from-b" }))
	b.Load(ctx)

	b.Add(ctx, build(t, recurrence.Input{Title: "from cli", Mode: models.ModeDaily, Time: now}))
	a.Reload(ctx)
	a.Add(ctx, build(t, recurrence.Input{Title: "from mcp", Mode: models.ModeDaily, Time: now}))

	list := persisted(t, kv)
	if len(list) != 2 || list[0]["title"] != "from mcp" || list[1]["title"] != "from cli" {
		t.Errorf("persisted = %v, want both writers' reminders", list)
	}
}

func TestReload_KeepsListWhenReadFails(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryStore: storage.NewMemoryStore()}
	s := newTestStore(t, kv, nil)
	s.Add(ctx, build(t, recurrence.Input{Title: "x", Mode: models.ModeDaily, Time: now}))

	kv.getErr = errors.New("disk gone")
	if got := s.Reload(ctx); len(got) != 1 {
		t.Errorf("Reload() = %+v, want the current list", got)
	}
}

func TestPersistFailureStillMutates(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryStore: storage.NewMemoryStore(), setErr: errors.New("read-only filesystem")}
	s := newTestStore(t, kv, nil)

	r := s.Add(ctx, build(t, recurrence.Input{Title: "x", Mode: models.ModeDaily, Time: now}))
	if _, ok := s.ToggleDone(ctx, r.ID); !ok {
		t.Fatal("toggle failed")
	}
	if got, _ := s.Get(r.ID); !got.Done {
		t.Error("in-memory toggle lost after a failed write")
	}
	if kv.writes != 2 {
		t.Errorf("expected one write attempt per mutation, got %d", kv.writes)
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStore(), nil)
	r := s.Add(context.Background(), build(t, recurrence.Input{
		Title: "x", Mode: models.ModeWeekly, SelectedDays: []models.Weekday{1}, Time: now,
	}))

	list := s.List(FilterAll)
	list[0].Title = "changed"
	list[0].Recurrence.(models.Weekly).Days[0] = models.Sunday

	got, _ := s.Get(r.ID)
	if got.Title != "x" || got.Recurrence.(models.Weekly).Days[0] != models.Monday {
		t.Errorf("List leaked internal state: %+v", got)
	}
}

func TestParseFilter(t *testing.T) {
	for in, want := range map[string]Filter{"": FilterAll, "all": FilterAll, "active": FilterActive, "done": FilterDone} {
		if got, err := ParseFilter(in); err != nil || got != want {
			t.Errorf("ParseFilter(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFilter("archived"); err == nil || !strings.Contains(err.Error(), "archived") {
		t.Errorf("expected error naming the bad filter, got %v", err)
	}
}
