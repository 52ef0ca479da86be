package prayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minaret-app/minaret/internal/model"
)

const testDay = "2025-03-15"

func testSet() *model.PrayerDay {
	return &model.PrayerDay{
		Day: testDay,
		Prayers: []model.Prayer{
			{Name: model.PrayerFajr, Time: "05:00", Status: model.StatusUpcoming},
			{Name: model.PrayerSunrise, Time: "06:30", Status: model.StatusUpcoming},
			{Name: model.PrayerDhuhr, Time: "12:00", Status: model.StatusUpcoming},
			{Name: model.PrayerAsr, Time: "15:30", Status: model.StatusUpcoming},
			{Name: model.PrayerMaghrib, Time: "18:45", Status: model.StatusUpcoming},
			{Name: model.PrayerIsha, Time: "20:00", Status: model.StatusUpcoming},
		},
	}
}

func at(t *testing.T, timeOfDay string) time.Time {
	t.Helper()
	day, err := DayDate(testDay, time.UTC)
	require.NoError(t, err)
	instant, err := At(timeOfDay, day)
	require.NoError(t, err)
	return instant
}

func TestWindowBounds_EndIsNextStart(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowClamp)
	set := testSet()

	w, ok := e.WindowBounds(set, model.PrayerFajr, time.Time{})
	require.True(t, ok)
	assert.Equal(t, at(t, "05:00"), w.Start)
	assert.Equal(t, at(t, "06:30"), w.End, "Fajr should end at Sunrise")

	w, ok = e.WindowBounds(set, model.PrayerDhuhr, time.Time{})
	require.True(t, ok)
	assert.Equal(t, at(t, "12:00"), w.Start)
	assert.Equal(t, at(t, "15:30"), w.End)
}

func TestWindowBounds_LastPrayerClamp(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowClamp)

	w, ok := e.WindowBounds(testSet(), model.PrayerIsha, time.Time{})
	require.True(t, ok)
	assert.Equal(t, at(t, "20:00"), w.Start)

	day, _ := DayDate(testDay, time.UTC)
	assert.Equal(t, time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, time.UTC), w.End)
}

func TestWindowBounds_LastPrayerExtend(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowExtend)
	nextFajr := at(t, "05:01").AddDate(0, 0, 1)

	w, ok := e.WindowBounds(testSet(), model.PrayerIsha, nextFajr)
	require.True(t, ok)
	assert.Equal(t, nextFajr, w.End)

	// Unknown next day falls back to the clamp boundary.
	w, ok = e.WindowBounds(testSet(), model.PrayerIsha, time.Time{})
	require.True(t, ok)
	assert.Equal(t, 23, w.End.Hour())
	assert.Equal(t, 59, w.End.Minute())
}

func TestWindowBounds_MalformedTimesSkipped(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowClamp)
	set := testSet()
	set.Prayers[3].Time = "garbage" // Asr

	// Dhuhr skips the unparseable Asr and ends at Maghrib.
	w, ok := e.WindowBounds(set, model.PrayerDhuhr, time.Time{})
	require.True(t, ok)
	assert.Equal(t, at(t, "18:45"), w.End)

	// The malformed prayer itself has no window.
	_, ok = e.WindowBounds(set, model.PrayerAsr, time.Time{})
	assert.False(t, ok)
}

func TestWindowBounds_AbsentPrayer(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowClamp)
	_, ok := e.WindowBounds(testSet(), "Tahajjud", time.Time{})
	assert.False(t, ok)
}

func TestWindow_HalfOpen(t *testing.T) {
	w := Window{Start: at(t, "12:00"), End: at(t, "15:30")}

	assert.True(t, w.Contains(at(t, "12:00")), "start instant is inside")
	assert.True(t, w.Contains(at(t, "15:29")))
	assert.False(t, w.Contains(at(t, "15:30")), "end instant is outside")
	assert.False(t, w.Contains(at(t, "11:59")))
}

func TestIsActive_SunriseNeverActive(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowClamp)
	set := testSet()

	assert.False(t, e.IsActive(set, model.PrayerSunrise, at(t, "07:00"), time.Time{}))
	// But it still closes Fajr's window.
	assert.False(t, e.IsActive(set, model.PrayerFajr, at(t, "06:30"), time.Time{}))
	assert.True(t, e.IsActive(set, model.PrayerFajr, at(t, "06:29"), time.Time{}))
}

func TestIsActive_NeverBothActiveAndEnded(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowClamp)
	set := testSet()

	instants := []string{"04:59", "05:00", "06:29", "06:30", "12:00", "15:29", "15:30", "20:00", "23:59"}
	for _, s := range instants {
		now := at(t, s)
		for _, p := range set.Prayers {
			active := e.IsActive(set, p.Name, now, time.Time{})
			ended := e.HasWindowEnded(set, p.Name, now, time.Time{})
			assert.False(t, active && ended, "%s at %s is both active and ended", p.Name, s)
		}
	}
}

func TestHasWindowEnded_Monotonic(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowClamp)
	set := testSet()

	ended := false
	for _, s := range []string{"05:00", "06:29", "06:30", "12:00", "18:00"} {
		now := e.HasWindowEnded(set, model.PrayerFajr, at(t, s), time.Time{})
		if ended {
			assert.True(t, now, "window cannot re-open at %s", s)
		}
		ended = now
	}
	assert.True(t, ended)
}

func TestDeriveStatus(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowClamp)
	set := testSet()
	fajr := *set.ByName(model.PrayerFajr)

	assert.Equal(t, model.StatusUpcoming, e.DeriveStatus(set, fajr, at(t, "05:30"), time.Time{}))
	assert.Equal(t, model.StatusMissed, e.DeriveStatus(set, fajr, at(t, "06:30"), time.Time{}))

	// Manual completion is sticky, even after the window closes.
	fajr.Status = model.StatusCompleted
	assert.Equal(t, model.StatusCompleted, e.DeriveStatus(set, fajr, at(t, "07:00"), time.Time{}))
}

func TestDeriveStatus_SunriseExpires(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowClamp)
	set := testSet()
	sunrise := *set.ByName(model.PrayerSunrise)

	assert.Equal(t, model.StatusUpcoming, e.DeriveStatus(set, sunrise, at(t, "06:00"), time.Time{}))
	assert.Equal(t, model.StatusMissed, e.DeriveStatus(set, sunrise, at(t, "12:00"), time.Time{}))
}

func TestActivePrayer_AtMostOne(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowClamp)
	set := testSet()

	p, ok := e.ActivePrayer(set, at(t, "12:30"), time.Time{})
	require.True(t, ok)
	assert.Equal(t, model.PrayerDhuhr, p.Name)

	// Between Fajr's end and Dhuhr only Sunrise's span is running, which is
	// not actionable, so nothing is active.
	_, ok = e.ActivePrayer(set, at(t, "08:00"), time.Time{})
	assert.False(t, ok)
}

func TestNextUpcoming(t *testing.T) {
	e := NewEngine(time.UTC, LastWindowClamp)
	set := testSet()
	set.ByName(model.PrayerFajr).Status = model.StatusMissed
	set.ByName(model.PrayerSunrise).Status = model.StatusMissed
	set.ByName(model.PrayerDhuhr).Status = model.StatusCompleted

	p, start, ok := e.NextUpcoming(set, at(t, "13:00"))
	require.True(t, ok)
	assert.Equal(t, model.PrayerAsr, p.Name)
	assert.Equal(t, at(t, "15:30"), start)

	for i := range set.Prayers {
		set.Prayers[i].Status = model.StatusMissed
	}
	_, _, ok = e.NextUpcoming(set, at(t, "23:00"))
	assert.False(t, ok)
}

func TestParseLastWindowPolicy(t *testing.T) {
	assert.Equal(t, LastWindowExtend, ParseLastWindowPolicy("extend"))
	assert.Equal(t, LastWindowClamp, ParseLastWindowPolicy("clamp"))
	assert.Equal(t, LastWindowClamp, ParseLastWindowPolicy(""))
	assert.Equal(t, LastWindowClamp, ParseLastWindowPolicy("bogus"))
}
