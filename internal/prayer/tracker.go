package prayer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/minaret-app/minaret/internal/model"
)

// Sink receives pre-computed notification instants. Implementations must
// support revoking every pending alert whose key starts with a prefix, since
// the planner cancels per window in bulk.
type Sink interface {
	Schedule(alert Alert, payload Payload) error
	CancelPrefix(prefix string) error
}

// Provider returns the raw prayer times for one local calendar day.
type Provider interface {
	FetchDay(ctx context.Context, latitude, longitude float64, day time.Time) (*model.PrayerDay, error)
}

// Store persists daily snapshots. It is an eventually-consistent cache, never
// the source of truth for "now"; save failures are logged and tolerated.
type Store interface {
	SavePrayerDay(day *model.PrayerDay) error
}

// Payload is the notification content pushed alongside a scheduled alert.
type Payload struct {
	Kind     AlertKind `json:"kind"`
	Prayer   string    `json:"prayer"`
	Time     string    `json:"time"`
	At       time.Time `json:"at"`
	SoundURL string    `json:"sound_url,omitempty"`
	Message  string    `json:"message"`
}

var (
	ErrNoData             = errors.New("no prayer data loaded")
	ErrUnknownPrayer      = errors.New("unknown prayer")
	ErrNotAcknowledgeable = errors.New("prayer cannot be acknowledged")
)

// TrackerConfig wires the tracker's collaborators.
type TrackerConfig struct {
	Clock    Clock
	Engine   *Engine
	Planner  *Planner
	Provider Provider
	Store    Store
	Sink     Sink
	Logger   zerolog.Logger

	Latitude  float64
	Longitude float64
	Settings  model.ReminderSettings

	// SoundURL resolves the adhan audio for a prayer's primary alert.
	// Optional.
	SoundURL func(prayer string) string
}

// Tracker owns one day's prayer set. All engine queries and the
// acknowledgment state machine run under a single mutex; the 1 s tick and
// the HTTP-facing methods are the only entry points.
type Tracker struct {
	mu sync.Mutex

	clock    Clock
	engine   *Engine
	planner  *Planner
	provider Provider
	store    Store
	sink     Sink
	logger   zerolog.Logger

	latitude  float64
	longitude float64
	settings  model.ReminderSettings
	soundURL  func(string) string

	day          *model.PrayerDay
	nextDayFirst time.Time
	scheduled    map[string]Alert
	loadFailed   bool
	refreshing   bool
}

func NewTracker(cfg TrackerConfig) *Tracker {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock(cfg.Engine.Location())
	}
	if cfg.Settings.IntervalMinutes < 1 {
		cfg.Settings.IntervalMinutes = 1
	}
	return &Tracker{
		clock:     cfg.Clock,
		engine:    cfg.Engine,
		planner:   cfg.Planner,
		provider:  cfg.Provider,
		store:     cfg.Store,
		sink:      cfg.Sink,
		logger:    cfg.Logger,
		latitude:  cfg.Latitude,
		longitude: cfg.Longitude,
		settings:  cfg.Settings,
		soundURL:  cfg.SoundURL,
		scheduled: make(map[string]Alert),
	}
}

// Run executes the evaluation loop until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	if err := t.Refresh(ctx); err != nil {
		t.logger.Error().Err(err).Msg("initial prayer times fetch failed")
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	t.logger.Info().Msg("prayer tracker started")
	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("prayer tracker stopped")
			return ctx.Err()
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

// Tick advances the state machine to the current instant: expired windows
// transition Upcoming prayers to Missed (with their pending alerts revoked),
// fired alerts are pruned, and crossing into a new calendar day triggers a
// background refetch while the prior set is retained as last known good.
func (t *Tracker) Tick(ctx context.Context) {
	now := t.clock.Now()

	t.mu.Lock()
	if t.day == nil {
		t.mu.Unlock()
		return
	}

	rolledOver := model.DayKey(now) != t.day.Day && !t.refreshing
	if rolledOver {
		t.refreshing = true
	}

	changed := false
	for i := range t.day.Prayers {
		p := &t.day.Prayers[i]
		if p.Status != model.StatusUpcoming {
			continue
		}
		if t.engine.DeriveStatus(t.day, *p, now, t.nextDayFirst) == model.StatusMissed {
			t.cancelOwnerLocked(p.Name)
			p.Status = model.StatusMissed
			changed = true
			t.logger.Info().Str("prayer", p.Name).Msg("prayer window ended without acknowledgment")
		}
	}

	for key, alert := range t.scheduled {
		if !alert.At.After(now) {
			delete(t.scheduled, key)
		}
	}

	if changed {
		t.saveLocked()
	}
	t.mu.Unlock()

	if rolledOver {
		t.logger.Info().Str("day", model.DayKey(now)).Msg("day rollover detected")
		go func() {
			defer func() {
				t.mu.Lock()
				t.refreshing = false
				t.mu.Unlock()
			}()
			if err := t.Refresh(ctx); err != nil {
				t.logger.Error().Err(err).Msg("day rollover refetch failed, retaining previous set")
			}
		}()
	}
}

// Refresh fetches fresh times from the provider, merges them with the current
// set (completed prayers carry forward when name and time match), persists the
// snapshot and replans every reminder. On failure the previous set is
// retained and the failure is surfaced via Snapshot.
func (t *Tracker) Refresh(ctx context.Context) error {
	now := t.clock.Now()

	fresh, err := t.provider.FetchDay(ctx, t.latitude, t.longitude, now)
	if err != nil {
		t.mu.Lock()
		t.loadFailed = true
		t.mu.Unlock()
		return fmt.Errorf("fetch prayer times: %w", err)
	}

	var nextFirst time.Time
	if t.engine.Policy() == LastWindowExtend {
		tomorrow := now.AddDate(0, 0, 1)
		if next, err := t.provider.FetchDay(ctx, t.latitude, t.longitude, tomorrow); err == nil && len(next.Prayers) > 0 {
			if day, derr := DayDate(next.Day, t.engine.Location()); derr == nil {
				if start, aerr := At(next.Prayers[0].Time, day); aerr == nil {
					nextFirst = start
				}
			}
		} else if err != nil {
			t.logger.Warn().Err(err).Msg("could not fetch next day's times for window extension")
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.day = mergeDays(fresh, t.day)
	t.nextDayFirst = nextFirst
	t.loadFailed = false

	// Windows that ended before we ever saw this day start out missed.
	for i := range t.day.Prayers {
		p := &t.day.Prayers[i]
		p.Status = t.engine.DeriveStatus(t.day, *p, now, t.nextDayFirst)
	}

	t.saveLocked()
	t.replanLocked(now)
	t.logger.Info().Str("day", t.day.Day).Int("prayers", len(t.day.Prayers)).Msg("prayer times refreshed")
	return nil
}

// mergeDays keeps a completed status from prev when the prayer reappears in
// fresh with the same name and time.
func mergeDays(fresh, prev *model.PrayerDay) *model.PrayerDay {
	if prev == nil {
		return fresh
	}
	for i := range fresh.Prayers {
		np := &fresh.Prayers[i]
		if old := prev.ByName(np.Name); old != nil &&
			old.Status == model.StatusCompleted && old.Time == np.Time {
			np.Status = model.StatusCompleted
		}
	}
	return fresh
}

// Acknowledge marks a prayer completed. Allowed from Upcoming and from Missed
// (late completion); completion is terminal. Pending alerts are revoked
// before the status is written, so the two are atomic to callers.
func (t *Tracker) Acknowledge(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.day == nil {
		return ErrNoData
	}
	p := t.day.ByName(name)
	if p == nil {
		return ErrUnknownPrayer
	}
	if !p.Actionable() {
		return ErrNotAcknowledgeable
	}
	if p.Status == model.StatusCompleted {
		return nil
	}

	t.cancelOwnerLocked(name)
	p.Status = model.StatusCompleted
	t.saveLocked()
	t.logger.Info().Str("prayer", name).Msg("prayer acknowledged")
	return nil
}

// SetSettings applies a new reminder configuration and replans the day.
func (t *Tracker) SetSettings(s model.ReminderSettings) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.IntervalMinutes < 1 {
		s.IntervalMinutes = 1
	}
	t.settings = s
	t.engine.SetPolicy(ParseLastWindowPolicy(s.LastWindowPolicy))
	if t.day != nil {
		t.replanLocked(t.clock.Now())
	}
	t.logger.Info().
		Int("interval_minutes", s.IntervalMinutes).
		Bool("enabled", s.Enabled).
		Str("last_window_policy", string(t.engine.Policy())).
		Msg("reminder settings updated")
}

// Settings returns the current reminder configuration.
func (t *Tracker) Settings() model.ReminderSettings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// cancelOwnerLocked revokes every pending alert for one prayer, sink first.
func (t *Tracker) cancelOwnerLocked(name string) {
	prefix := OwnerPrefix(name)
	if err := t.sink.CancelPrefix(prefix); err != nil {
		t.logger.Warn().Err(err).Str("prayer", name).Msg("sink cancel failed")
	}
	for key := range t.scheduled {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(t.scheduled, key)
		}
	}
}

// replanLocked cancels everything outstanding and schedules the full batch
// for every prayer still Upcoming. Idempotent for unchanged inputs.
func (t *Tracker) replanLocked(now time.Time) {
	plan := t.planner.Replan(t.day, t.settings.IntervalMinutes, t.settings.Enabled, now, t.nextDayFirst)

	for _, prefix := range plan.CancelPrefixes {
		if err := t.sink.CancelPrefix(prefix); err != nil {
			t.logger.Warn().Err(err).Str("prefix", prefix).Msg("sink cancel failed during replan")
		}
		for key := range t.scheduled {
			if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
				delete(t.scheduled, key)
			}
		}
	}

	for _, alert := range plan.Alerts {
		if err := t.sink.Schedule(alert, t.payloadFor(alert)); err != nil {
			t.logger.Warn().Err(err).Str("key", alert.Key).Msg("sink schedule failed")
			continue
		}
		t.scheduled[alert.Key] = alert
	}
	t.logger.Debug().Int("alerts", len(plan.Alerts)).Msg("reminders replanned")
}

func (t *Tracker) payloadFor(alert Alert) Payload {
	p := Payload{
		Kind:   alert.Kind,
		Prayer: alert.Owner,
		At:     alert.At,
	}
	if t.day != nil {
		if pr := t.day.ByName(alert.Owner); pr != nil {
			p.Time = pr.Time
		}
	}
	switch alert.Kind {
	case AlertPrimary:
		p.Message = fmt.Sprintf("It's time for %s.", alert.Owner)
		if t.soundURL != nil {
			p.SoundURL = t.soundURL(alert.Owner)
		}
	case AlertFollowUp:
		p.Message = fmt.Sprintf("Have you prayed %s yet?", alert.Owner)
	}
	return p
}

func (t *Tracker) saveLocked() {
	if t.store == nil || t.day == nil {
		return
	}
	if err := t.store.SavePrayerDay(t.day); err != nil {
		t.logger.Error().Err(err).Str("day", t.day.Day).Msg("failed to persist prayer day")
	}
}

// PrayerView is a prayer plus its derived facts for presentation.
type PrayerView struct {
	model.Prayer
	Active      bool      `json:"active"`
	WindowStart time.Time `json:"window_start,omitempty"`
	WindowEnd   time.Time `json:"window_end,omitempty"`
}

// NextInfo describes the first Upcoming prayer for countdown display.
type NextInfo struct {
	Name         string    `json:"name"`
	At           time.Time `json:"at"`
	UntilSeconds int64     `json:"until_seconds"`
}

// Snapshot is a consistent read of the tracker's state.
type Snapshot struct {
	Day        string                 `json:"day"`
	Prayers    []PrayerView           `json:"prayers"`
	Next       *NextInfo              `json:"next,omitempty"`
	LoadFailed bool                   `json:"load_failed"`
	Settings   model.ReminderSettings `json:"settings"`
}

// Snapshot returns the current day with derived active flags and the next
// upcoming prayer. Safe for concurrent use.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{LoadFailed: t.loadFailed, Settings: t.settings}
	if t.day == nil {
		return snap
	}
	now := t.clock.Now()
	snap.Day = t.day.Day

	for i := range t.day.Prayers {
		p := t.day.Prayers[i]
		view := PrayerView{Prayer: p}
		if w, ok := t.engine.WindowBounds(t.day, p.Name, t.nextDayFirst); ok {
			view.WindowStart = w.Start
			view.WindowEnd = w.End
		}
		view.Active = t.engine.IsActive(t.day, p.Name, now, t.nextDayFirst)
		snap.Prayers = append(snap.Prayers, view)
	}

	if p, at, ok := t.engine.NextUpcoming(t.day, now); ok {
		snap.Next = &NextInfo{
			Name:         p.Name,
			At:           at,
			UntilSeconds: int64(at.Sub(now).Seconds()),
		}
	}
	return snap
}

// Outstanding returns the pending alert set, keyed by sink identifier.
func (t *Tracker) Outstanding() map[string]Alert {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Alert, len(t.scheduled))
	for k, v := range t.scheduled {
		out[k] = v
	}
	return out
}
