package prayer

import (
	"fmt"
	"time"

	"github.com/minaret-app/minaret/internal/model"
)

// AlertKind distinguishes the single opening alert from repeating follow-ups.
type AlertKind string

const (
	AlertPrimary  AlertKind = "primary"
	AlertFollowUp AlertKind = "followup"
)

// Alert is one pre-computed notification instant. Key is the sink identifier;
// every key for a given prayer shares OwnerPrefix(owner) so the whole window
// can be revoked in one prefix cancel.
type Alert struct {
	Owner string
	Key   string
	At    time.Time
	Kind  AlertKind
}

// OwnerPrefix is the sink-key prefix shared by every alert of one prayer.
func OwnerPrefix(owner string) string {
	return "prayer/" + owner + "/"
}

func primaryKey(owner string) string {
	return OwnerPrefix(owner) + "athan"
}

func followUpKey(owner string, k int) string {
	return fmt.Sprintf("%sreminder/%03d", OwnerPrefix(owner), k)
}

// Plan is the net result of a Replan: prefixes to revoke first, then the
// alerts to schedule. Cancellation is total and always precedes scheduling.
type Plan struct {
	CancelPrefixes []string
	Alerts         []Alert
}

// Planner turns window-engine facts into enumerable notification instants so
// delivery can be registered entirely in advance.
type Planner struct {
	engine *Engine
}

func NewPlanner(engine *Engine) *Planner {
	return &Planner{engine: engine}
}

// PlanPrimary produces the single alert fired at the window's start,
// suppressed when the start is not in the future at planning time.
func (pl *Planner) PlanPrimary(set *model.PrayerDay, name string, now, nextDayFirst time.Time) (Alert, bool) {
	w, ok := pl.engine.WindowBounds(set, name, nextDayFirst)
	if !ok {
		return Alert{}, false
	}
	p := set.ByName(name)
	if p == nil || !p.Actionable() {
		return Alert{}, false
	}
	if !w.Start.After(now) {
		return Alert{}, false
	}
	return Alert{Owner: name, Key: primaryKey(name), At: w.Start, Kind: AlertPrimary}, true
}

// PlanFollowUps enumerates every follow-up instant start+k*interval inside
// [start+interval, end). Intervals below one minute are clamped to one, not
// rejected. The enumeration is the full batch for the window; filtering out
// instants already in the past is the caller's concern.
func (pl *Planner) PlanFollowUps(set *model.PrayerDay, name string, intervalMinutes int, nextDayFirst time.Time) []Alert {
	w, ok := pl.engine.WindowBounds(set, name, nextDayFirst)
	if !ok {
		return nil
	}
	p := set.ByName(name)
	if p == nil || !p.Actionable() {
		return nil
	}
	if intervalMinutes < 1 {
		intervalMinutes = 1
	}
	interval := time.Duration(intervalMinutes) * time.Minute

	var alerts []Alert
	for k, at := 1, w.Start.Add(interval); at.Before(w.End); k, at = k+1, at.Add(interval) {
		alerts = append(alerts, Alert{Owner: name, Key: followUpKey(name, k), At: at, Kind: AlertFollowUp})
	}
	return alerts
}

// Replan computes the full net schedule for a day: revoke everything
// outstanding, then plan a primary and (when enabled) follow-ups for every
// prayer still Upcoming. Applying the same inputs twice yields the same net
// schedule. Follow-ups that would land exactly on any primary instant are
// dropped; the primary takes precedence.
func (pl *Planner) Replan(set *model.PrayerDay, intervalMinutes int, followUpsEnabled bool, now, nextDayFirst time.Time) Plan {
	plan := Plan{}
	if set == nil {
		return plan
	}

	primaries := make(map[time.Time]struct{})

	for i := range set.Prayers {
		p := set.Prayers[i]
		plan.CancelPrefixes = append(plan.CancelPrefixes, OwnerPrefix(p.Name))

		if pl.engine.DeriveStatus(set, p, now, nextDayFirst) != model.StatusUpcoming || !p.Actionable() {
			continue
		}
		if alert, ok := pl.PlanPrimary(set, p.Name, now, nextDayFirst); ok {
			plan.Alerts = append(plan.Alerts, alert)
			primaries[alert.At] = struct{}{}
		}
		if followUpsEnabled {
			for _, alert := range pl.PlanFollowUps(set, p.Name, intervalMinutes, nextDayFirst) {
				if !alert.At.After(now) {
					continue
				}
				if _, clash := primaries[alert.At]; clash {
					continue
				}
				plan.Alerts = append(plan.Alerts, alert)
			}
		}
	}
	return plan
}
