package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/julianstephens/remindr/internal/config"
	"github.com/julianstephens/remindr/internal/constants"
	apperrors "github.com/julianstephens/remindr/internal/errors"
	"github.com/julianstephens/remindr/internal/models"
	"github.com/julianstephens/remindr/internal/recurrence"
)

type stubChannel struct {
	err error
}

func (s stubChannel) Available() error { return s.err }

func (s stubChannel) Deliver(ctx context.Context, c models.Content) error { return s.err }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Storage: config.StorageConfig{
			Backend: string(constants.BackendMemory),
			Key:     constants.StorageKey,
		},
		Notifications: config.NotificationsConfig{
			Enabled:      true,
			QueuePath:    filepath.Join(t.TempDir(), "queue.db"),
			PollInterval: time.Second,
			DurationMs:   constants.NotificationDurationMs,
		},
	}
}

func TestContextOpen(t *testing.T) {
	now := time.Date(2026, 10, 20, 10, 0, 0, 0, time.Local)
	ctx := &Context{
		Config:  testConfig(t),
		Channel: stubChannel{},
		Out:     &bytes.Buffer{},
		Now:     func() time.Time { return now },
	}
	if err := ctx.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer ctx.Close()

	if !ctx.Reminders.NotificationsEnabled() {
		t.Fatal("expected notifications to be enabled with a reachable channel")
	}

	in := recurrence.Input{Title: "Stretch", Mode: models.ModeEveryMinutes, IntervalRaw: "45"}
	p, err := recurrence.Build(in)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	ctx.Reminders.Add(context.Background(), p)

	pending, err := ctx.Queue.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 queued notification, got %d", len(pending))
	}

	if err := ctx.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestContextOpen_ChannelUnreachable(t *testing.T) {
	ctx := &Context{
		Config:  testConfig(t),
		Channel: stubChannel{err: errors.New("tray not running")},
		Out:     &bytes.Buffer{},
	}
	if err := ctx.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer ctx.Close()

	if ctx.Reminders.NotificationsEnabled() {
		t.Error("expected notifications to be disabled when the channel is unreachable")
	}
}

func TestContextOpen_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "floppy"
	ctx := &Context{Config: cfg}
	if err := ctx.Open(context.Background()); err == nil {
		ctx.Close()
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestParseWeekdays(t *testing.T) {
	tests := []struct {
		input   string
		want    []models.Weekday
		wantErr bool
	}{
		{"mon,wed,fri", []models.Weekday{models.Monday, models.Wednesday, models.Friday}, false},
		{"Sunday, saturday", []models.Weekday{models.Sunday, models.Saturday}, false},
		{"1,7", []models.Weekday{models.Monday, models.Sunday}, false},
		{"tue,,thu", []models.Weekday{models.Tuesday, models.Thursday}, false},
		{"", nil, false},
		{"0", nil, true},
		{"8", nil, true},
		{"someday", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeekdays(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeekdays(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("ParseWeekdays(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseWhen(t *testing.T) {
	now := time.Date(2026, 10, 20, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"later today", "15:30", time.Date(2026, 10, 20, 15, 30, 0, 0, time.Local), false},
		{"earlier rolls to tomorrow", "09:00", time.Date(2026, 10, 21, 9, 0, 0, 0, time.Local), false},
		{"exactly now rolls to tomorrow", "10:00", time.Date(2026, 10, 21, 10, 0, 0, 0, time.Local), false},
		{"date and time", "2026-11-02 15:00", time.Date(2026, 11, 2, 15, 0, 0, 0, time.Local), false},
		{"rfc3339", "2026-11-02T15:00:00Z", time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC), false},
		{"garbage", "tomorrow-ish", time.Time{}, true},
		{"bad clock", "25:00", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWhen(tt.input, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWhen(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseWhen(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveID(t *testing.T) {
	list := []models.Reminder{
		{ID: "01JABCDEF0000000000000000A", Title: "first"},
		{ID: "01JABCDEF0000000000000000B", Title: "second"},
		{ID: "01JXYZ00000000000000000000", Title: "third"},
	}

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{"exact", "01JABCDEF0000000000000000B", "second", false},
		{"unique prefix", "01jxyz", "third", false},
		{"ambiguous prefix", "01JABC", "", true},
		{"unknown", "02", "", true},
		{"empty", "  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveID(list, tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveID(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if !tt.wantErr && got.Title != tt.want {
				t.Errorf("ResolveID(%q) = %q, want %q", tt.ref, got.Title, tt.want)
			}
		})
	}

	_, err := ResolveID(list, "zz")
	if apperrors.Hint(err) == "" {
		t.Errorf("expected a hint on a missing reminder, got %v", err)
	}
}
