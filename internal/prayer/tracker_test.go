package prayer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minaret-app/minaret/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// memorySink records schedule/cancel calls the way a device fleet would see
// them.
type memorySink struct {
	mu        sync.Mutex
	scheduled map[string]Alert
	cancelled []string
}

func newMemorySink() *memorySink {
	return &memorySink{scheduled: make(map[string]Alert)}
}

func (s *memorySink) Schedule(alert Alert, _ Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[alert.Key] = alert
	return nil
}

func (s *memorySink) CancelPrefix(prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, prefix)
	for key := range s.scheduled {
		if strings.HasPrefix(key, prefix) {
			delete(s.scheduled, key)
		}
	}
	return nil
}

func (s *memorySink) keysFor(owner string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for key := range s.scheduled {
		if strings.HasPrefix(key, OwnerPrefix(owner)) {
			out = append(out, key)
		}
	}
	return out
}

type fakeProvider struct {
	mu      sync.Mutex
	times   map[string]string // prayer name -> "HH:MM"
	err     error
	fetches int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{times: map[string]string{
		model.PrayerFajr:    "05:00",
		model.PrayerSunrise: "06:30",
		model.PrayerDhuhr:   "12:00",
		model.PrayerAsr:     "15:30",
		model.PrayerMaghrib: "18:45",
		model.PrayerIsha:    "20:00",
	}}
}

func (p *fakeProvider) FetchDay(_ context.Context, _, _ float64, day time.Time) (*model.PrayerDay, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches++
	if p.err != nil {
		return nil, p.err
	}
	names := []string{
		model.PrayerFajr, model.PrayerSunrise, model.PrayerDhuhr,
		model.PrayerAsr, model.PrayerMaghrib, model.PrayerIsha,
	}
	out := &model.PrayerDay{Day: model.DayKey(day)}
	for _, name := range names {
		out.Prayers = append(out.Prayers, model.Prayer{
			Name: name, Time: p.times[name], Status: model.StatusUpcoming,
		})
	}
	return out, nil
}

type memoryStore struct {
	mu    sync.Mutex
	saves int
	last  *model.PrayerDay
}

func (s *memoryStore) SavePrayerDay(day *model.PrayerDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.last = day
	return nil
}

type trackerFixture struct {
	tracker  *Tracker
	clock    *fakeClock
	sink     *memorySink
	provider *fakeProvider
	store    *memoryStore
}

func newFixture(t *testing.T, nowOfDay string) *trackerFixture {
	t.Helper()
	clock := &fakeClock{now: at(t, nowOfDay)}
	sink := newMemorySink()
	provider := newFakeProvider()
	store := &memoryStore{}
	engine := NewEngine(time.UTC, LastWindowClamp)

	tracker := NewTracker(TrackerConfig{
		Clock:    clock,
		Engine:   engine,
		Planner:  NewPlanner(engine),
		Provider: provider,
		Store:    store,
		Sink:     sink,
		Logger:   zerolog.Nop(),
		Settings: model.ReminderSettings{IntervalMinutes: 10, Enabled: true, LastWindowPolicy: "clamp"},
	})
	return &trackerFixture{tracker: tracker, clock: clock, sink: sink, provider: provider, store: store}
}

func TestTracker_RefreshPlansReminders(t *testing.T) {
	f := newFixture(t, "04:00")
	require.NoError(t, f.tracker.Refresh(context.Background()))

	// Five actionable prayers get a primary each.
	for _, name := range []string{model.PrayerFajr, model.PrayerDhuhr, model.PrayerAsr, model.PrayerMaghrib, model.PrayerIsha} {
		keys := f.sink.keysFor(name)
		assert.Contains(t, keys, OwnerPrefix(name)+"athan", "missing primary for %s", name)
		assert.Greater(t, len(keys), 1, "expected follow-ups for %s", name)
	}
	assert.Empty(t, f.sink.keysFor(model.PrayerSunrise))
	assert.Equal(t, 1, f.store.saves)

	snap := f.tracker.Snapshot()
	assert.Equal(t, testDay, snap.Day)
	assert.False(t, snap.LoadFailed)
}

func TestTracker_TickMarksMissedAndCancels(t *testing.T) {
	f := newFixture(t, "04:00")
	require.NoError(t, f.tracker.Refresh(context.Background()))
	require.NotEmpty(t, f.sink.keysFor(model.PrayerFajr))

	f.clock.Set(at(t, "06:30")) // Fajr window just closed
	f.tracker.Tick(context.Background())

	snap := f.tracker.Snapshot()
	fajr := snap.Prayers[0]
	assert.Equal(t, model.PrayerFajr, fajr.Name)
	assert.Equal(t, model.StatusMissed, fajr.Status)
	assert.Empty(t, f.sink.keysFor(model.PrayerFajr), "missed prayer keeps no pending alerts")
	assert.Contains(t, f.sink.cancelled, OwnerPrefix(model.PrayerFajr))
}

func TestTracker_SunriseExpiresWithoutAlerts(t *testing.T) {
	f := newFixture(t, "04:00")
	require.NoError(t, f.tracker.Refresh(context.Background()))

	f.clock.Set(at(t, "12:00")) // Sunrise's span [06:30, 12:00) is over
	f.tracker.Tick(context.Background())

	snap := f.tracker.Snapshot()
	sunrise := snap.Prayers[1]
	assert.Equal(t, model.PrayerSunrise, sunrise.Name)
	assert.Equal(t, model.StatusMissed, sunrise.Status)
}

func TestTracker_AcknowledgeCancelsAndCompletes(t *testing.T) {
	f := newFixture(t, "04:00")
	require.NoError(t, f.tracker.Refresh(context.Background()))
	require.NotEmpty(t, f.sink.keysFor(model.PrayerDhuhr))

	require.NoError(t, f.tracker.Acknowledge(model.PrayerDhuhr))

	assert.Empty(t, f.sink.keysFor(model.PrayerDhuhr))
	for key := range f.tracker.Outstanding() {
		assert.False(t, strings.HasPrefix(key, OwnerPrefix(model.PrayerDhuhr)))
	}
	snap := f.tracker.Snapshot()
	assert.Equal(t, model.StatusCompleted, snap.Prayers[2].Status)

	// Re-acknowledging is a no-op, not an error.
	saves := f.store.saves
	require.NoError(t, f.tracker.Acknowledge(model.PrayerDhuhr))
	assert.Equal(t, saves, f.store.saves)
}

func TestTracker_AcknowledgeLateCompletion(t *testing.T) {
	f := newFixture(t, "04:00")
	require.NoError(t, f.tracker.Refresh(context.Background()))

	f.clock.Set(at(t, "07:00"))
	f.tracker.Tick(context.Background())
	require.Equal(t, model.StatusMissed, f.tracker.Snapshot().Prayers[0].Status)

	// Missed -> Completed is allowed; completion is terminal.
	require.NoError(t, f.tracker.Acknowledge(model.PrayerFajr))
	assert.Equal(t, model.StatusCompleted, f.tracker.Snapshot().Prayers[0].Status)

	f.clock.Set(at(t, "09:00"))
	f.tracker.Tick(context.Background())
	assert.Equal(t, model.StatusCompleted, f.tracker.Snapshot().Prayers[0].Status)
}

func TestTracker_AcknowledgeErrors(t *testing.T) {
	f := newFixture(t, "04:00")

	assert.ErrorIs(t, f.tracker.Acknowledge(model.PrayerFajr), ErrNoData)

	require.NoError(t, f.tracker.Refresh(context.Background()))
	assert.ErrorIs(t, f.tracker.Acknowledge("Tahajjud"), ErrUnknownPrayer)
	assert.ErrorIs(t, f.tracker.Acknowledge(model.PrayerSunrise), ErrNotAcknowledgeable)
}

func TestTracker_RefetchKeepsCompletedOnMatch(t *testing.T) {
	f := newFixture(t, "04:00")
	require.NoError(t, f.tracker.Refresh(context.Background()))
	require.NoError(t, f.tracker.Acknowledge(model.PrayerDhuhr))

	// Same name and time: completion carries forward.
	require.NoError(t, f.tracker.Refresh(context.Background()))
	assert.Equal(t, model.StatusCompleted, f.tracker.Snapshot().Prayers[2].Status)

	// Shifted time: the completion no longer applies.
	f.provider.mu.Lock()
	f.provider.times[model.PrayerDhuhr] = "12:05"
	f.provider.mu.Unlock()
	require.NoError(t, f.tracker.Refresh(context.Background()))
	assert.Equal(t, model.StatusUpcoming, f.tracker.Snapshot().Prayers[2].Status)
}

func TestTracker_FetchFailureRetainsLastGood(t *testing.T) {
	f := newFixture(t, "04:00")
	require.NoError(t, f.tracker.Refresh(context.Background()))

	f.provider.mu.Lock()
	f.provider.err = errors.New("boom")
	f.provider.mu.Unlock()

	require.Error(t, f.tracker.Refresh(context.Background()))
	snap := f.tracker.Snapshot()
	assert.True(t, snap.LoadFailed)
	assert.Equal(t, testDay, snap.Day, "previous day retained as last known good")
	assert.Len(t, snap.Prayers, 6)
}

func TestTracker_RefreshDerivesExpiredStatuses(t *testing.T) {
	// First load happens mid-afternoon: everything before Asr starts missed.
	f := newFixture(t, "16:00")
	require.NoError(t, f.tracker.Refresh(context.Background()))

	snap := f.tracker.Snapshot()
	assert.Equal(t, model.StatusMissed, snap.Prayers[0].Status) // Fajr
	assert.Equal(t, model.StatusMissed, snap.Prayers[2].Status) // Dhuhr
	assert.Equal(t, model.StatusUpcoming, snap.Prayers[3].Status)

	asr := snap.Prayers[3]
	assert.True(t, asr.Active)
	// No primary for the already-started Asr, only future follow-ups.
	assert.NotContains(t, f.sink.keysFor(model.PrayerAsr), OwnerPrefix(model.PrayerAsr)+"athan")
	assert.NotEmpty(t, f.sink.keysFor(model.PrayerAsr))
}

func TestTracker_SetSettingsReplans(t *testing.T) {
	f := newFixture(t, "04:00")
	require.NoError(t, f.tracker.Refresh(context.Background()))
	before := len(f.sink.keysFor(model.PrayerIsha))

	f.tracker.SetSettings(model.ReminderSettings{IntervalMinutes: 60, Enabled: true, LastWindowPolicy: "clamp"})
	after := len(f.sink.keysFor(model.PrayerIsha))
	assert.Less(t, after, before, "wider interval means fewer follow-ups")

	f.tracker.SetSettings(model.ReminderSettings{IntervalMinutes: 60, Enabled: false, LastWindowPolicy: "clamp"})
	assert.Equal(t, []string{OwnerPrefix(model.PrayerIsha) + "athan"}, f.sink.keysFor(model.PrayerIsha))
}

func TestTracker_SnapshotNextAndActive(t *testing.T) {
	f := newFixture(t, "11:00")
	require.NoError(t, f.tracker.Refresh(context.Background()))

	snap := f.tracker.Snapshot()
	for _, p := range snap.Prayers {
		assert.False(t, p.Active, "nothing active at 11:00, got %s", p.Name)
	}
	require.NotNil(t, snap.Next)
	assert.Equal(t, model.PrayerSunrise, snap.Next.Name, "sunrise is still Upcoming until its span ends")

	f.clock.Set(at(t, "12:30"))
	f.tracker.Tick(context.Background())
	snap = f.tracker.Snapshot()
	assert.True(t, snap.Prayers[2].Active)
	require.NotNil(t, snap.Next)
	assert.Equal(t, model.PrayerDhuhr, snap.Next.Name)
	assert.Negative(t, snap.Next.UntilSeconds, "countdown for an in-window prayer is negative")
}

func TestTracker_DayRolloverRefetches(t *testing.T) {
	f := newFixture(t, "23:00")
	require.NoError(t, f.tracker.Refresh(context.Background()))
	fetchesBefore := f.provider.fetches

	f.clock.Set(at(t, "23:00").AddDate(0, 0, 1))
	f.tracker.Tick(context.Background())

	assert.Eventually(t, func() bool {
		f.provider.mu.Lock()
		defer f.provider.mu.Unlock()
		return f.provider.fetches > fetchesBefore
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return f.tracker.Snapshot().Day == model.DayKey(at(t, "23:00").AddDate(0, 0, 1))
	}, time.Second, 10*time.Millisecond)
}
