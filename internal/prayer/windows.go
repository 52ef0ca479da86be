package prayer

import (
	"time"

	"github.com/minaret-app/minaret/internal/model"
)

// LastWindowPolicy controls where the final prayer's window ends.
type LastWindowPolicy string

const (
	// LastWindowClamp ends the last window at 23:59:59 local.
	LastWindowClamp LastWindowPolicy = "clamp"
	// LastWindowExtend ends the last window at the next day's first prayer
	// time when known, falling back to clamp when it isn't.
	LastWindowExtend LastWindowPolicy = "extend"
)

// ParseLastWindowPolicy returns the policy named by s, defaulting to clamp.
func ParseLastWindowPolicy(s string) LastWindowPolicy {
	if LastWindowPolicy(s) == LastWindowExtend {
		return LastWindowExtend
	}
	return LastWindowClamp
}

// Window is the half-open interval [Start, End) during which a prayer may be
// performed.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether now falls inside the window.
func (w Window) Contains(now time.Time) bool {
	return !now.Before(w.Start) && now.Before(w.End)
}

// Engine derives time-based facts from a prayer day and the current instant.
// It is stateless and performs no I/O; every predicate is computed from the
// single bounds pair returned by WindowBounds so that IsActive and
// HasWindowEnded can never disagree.
type Engine struct {
	loc    *time.Location
	policy LastWindowPolicy
}

func NewEngine(loc *time.Location, policy LastWindowPolicy) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if policy != LastWindowExtend {
		policy = LastWindowClamp
	}
	return &Engine{loc: loc, policy: policy}
}

func (e *Engine) Location() *time.Location     { return e.loc }
func (e *Engine) Policy() LastWindowPolicy     { return e.policy }
func (e *Engine) SetPolicy(p LastWindowPolicy) { e.policy = ParseLastWindowPolicy(string(p)) }

// start returns the absolute instant of the prayer at index i, skipping
// nothing: a malformed time yields ok=false and the point is excluded from
// boundary math.
func (e *Engine) start(set *model.PrayerDay, i int, day time.Time) (time.Time, bool) {
	t, err := At(set.Prayers[i].Time, day)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WindowBounds computes the window for the named prayer. Start is the
// prayer's own time; End is the start of the next parseable prayer in list
// order (the non-actionable point included, so it always bounds its
// predecessor). The last parseable prayer ends per the engine policy. The
// second return is false when the prayer is absent or its time is malformed.
func (e *Engine) WindowBounds(set *model.PrayerDay, name string, nextDayFirst time.Time) (Window, bool) {
	if set == nil || len(set.Prayers) == 0 {
		return Window{}, false
	}
	day, err := DayDate(set.Day, e.loc)
	if err != nil {
		return Window{}, false
	}

	idx := -1
	for i := range set.Prayers {
		if set.Prayers[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Window{}, false
	}

	start, ok := e.start(set, idx, day)
	if !ok {
		return Window{}, false
	}

	for i := idx + 1; i < len(set.Prayers); i++ {
		if next, ok := e.start(set, i, day); ok {
			return Window{Start: start, End: next}, true
		}
	}

	// Last parseable prayer of the day.
	end := endOfDay(day)
	if e.policy == LastWindowExtend && !nextDayFirst.IsZero() && nextDayFirst.After(start) {
		end = nextDayFirst
	}
	return Window{Start: start, End: end}, true
}

// IsActive reports whether the named prayer's window currently contains now.
// The non-actionable point is never active, though it still ends its
// predecessor's window.
func (e *Engine) IsActive(set *model.PrayerDay, name string, now, nextDayFirst time.Time) bool {
	if set == nil {
		return false
	}
	p := set.ByName(name)
	if p == nil || !p.Actionable() {
		return false
	}
	w, ok := e.WindowBounds(set, name, nextDayFirst)
	if !ok {
		return false
	}
	return w.Contains(now)
}

// HasWindowEnded reports whether the named prayer's window has closed.
func (e *Engine) HasWindowEnded(set *model.PrayerDay, name string, now, nextDayFirst time.Time) bool {
	w, ok := e.WindowBounds(set, name, nextDayFirst)
	if !ok {
		return false
	}
	return !now.Before(w.End)
}

// DeriveStatus returns the stored-status a prayer should carry at now.
// Manual completion is sticky and is never overridden by time passage.
func (e *Engine) DeriveStatus(set *model.PrayerDay, p model.Prayer, now, nextDayFirst time.Time) model.PrayerStatus {
	if p.Status == model.StatusCompleted {
		return model.StatusCompleted
	}
	if e.HasWindowEnded(set, p.Name, now, nextDayFirst) {
		return model.StatusMissed
	}
	return model.StatusUpcoming
}

// ActivePrayer returns the single currently active prayer, if any.
func (e *Engine) ActivePrayer(set *model.PrayerDay, now, nextDayFirst time.Time) (*model.Prayer, bool) {
	if set == nil {
		return nil, false
	}
	for i := range set.Prayers {
		if e.IsActive(set, set.Prayers[i].Name, now, nextDayFirst) {
			return &set.Prayers[i], true
		}
	}
	return nil, false
}

// NextUpcoming returns the first prayer in list order whose stored status is
// Upcoming, together with its start instant. The start may already be in the
// past when the prayer is inside its own window; callers use the instant for
// countdown display. Returns false when no Upcoming prayer remains — rolling
// over to the next day is the caller's decision.
func (e *Engine) NextUpcoming(set *model.PrayerDay, now time.Time) (*model.Prayer, time.Time, bool) {
	if set == nil || len(set.Prayers) == 0 {
		return nil, time.Time{}, false
	}
	day, err := DayDate(set.Day, e.loc)
	if err != nil {
		return nil, time.Time{}, false
	}
	for i := range set.Prayers {
		p := &set.Prayers[i]
		if p.Status != model.StatusUpcoming {
			continue
		}
		start, err := At(p.Time, day)
		if err != nil {
			continue
		}
		return p, start, true
	}
	return nil, time.Time{}, false
}
