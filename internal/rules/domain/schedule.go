package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidTime is returned for malformed times of day.
var ErrInvalidTime = errors.New("invalid time of day")

// ErrInvalidInterval is returned for unknown interval names.
var ErrInvalidInterval = errors.New("invalid interval")

// Interval is the schedule cadence as shown in the form.
type Interval string

const (
	IntervalNone     Interval = "none"
	IntervalDaily    Interval = "daily"
	IntervalWeekly   Interval = "weekly"
	IntervalBiweekly Interval = "biweekly"
	IntervalMonthly  Interval = "monthly"
)

// DefaultInterval is used whenever a day count has no named cadence.
const DefaultInterval = IntervalDaily

var intervalDays = map[Interval]int{
	IntervalDaily:    1,
	IntervalWeekly:   7,
	IntervalBiweekly: 14,
	IntervalMonthly:  30,
}

// Intervals lists every interval in display order.
func Intervals() []Interval {
	return []Interval{IntervalNone, IntervalDaily, IntervalWeekly, IntervalBiweekly, IntervalMonthly}
}

// ParseInterval parses an interval name.
func ParseInterval(v string) (Interval, error) {
	i := Interval(strings.ToLower(strings.TrimSpace(v)))
	if i == IntervalNone {
		return i, nil
	}
	if _, ok := intervalDays[i]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidInterval, v)
	}
	return i, nil
}

// Days returns the day count for i. IntervalNone has none.
func (i Interval) Days() (int, bool) {
	d, ok := intervalDays[i]
	return d, ok
}

// Label is the human-readable cadence.
func (i Interval) Label() string {
	switch i {
	case IntervalDaily:
		return "Daily"
	case IntervalWeekly:
		return "Weekly"
	case IntervalBiweekly:
		return "Every 2 weeks"
	case IntervalMonthly:
		return "Monthly"
	default:
		return "No repeat"
	}
}

// DaysToInterval maps a day count back to its interval. Counts without a
// named interval map to DefaultInterval.
func DaysToInterval(days int) Interval {
	for i, d := range intervalDays {
		if d == days {
			return i
		}
	}
	return DefaultInterval
}

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock parses a strict HH:MM time of day.
func ParseClock(v string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, v)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ParseTriggerTime reads a stored UTC trigger time. It accepts HH:MM and
// HH:MM:SS with an optional trailing Z, and RFC 3339 timestamps, from which
// the UTC time of day is taken.
func ParseTriggerTime(v string) (Clock, error) {
	v = strings.TrimSpace(v)
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		ts = ts.UTC()
		return Clock{Hour: ts.Hour(), Minute: ts.Minute()}, nil
	}
	v = strings.TrimSuffix(strings.TrimSuffix(v, "Z"), "z")
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, v)
}

// fixedOffset is loc pinned to the UTC offset in effect at ref. Both
// conversion directions use it, so they stay exact inverses even on a day
// that changes daylight saving.
func fixedOffset(loc *time.Location, ref time.Time) *time.Location {
	if loc == nil {
		return time.UTC
	}
	name, off := ref.In(loc).Zone()
	return time.FixedZone(name, off)
}

// LocalTimeToUTC converts a local HH:MM in loc to the UTC HH:MM stored as
// trigger_time, using the offset loc has at ref.
func LocalTimeToUTC(local string, loc *time.Location, ref time.Time) (string, error) {
	c, err := ParseClock(local)
	if err != nil {
		return "", err
	}
	t := time.Date(2000, time.January, 1, c.Hour, c.Minute, 0, 0, fixedOffset(loc, ref))
	return t.UTC().Format("15:04"), nil
}

// UTCToLocalTime converts a stored trigger time to a local HH:MM in loc,
// using the offset loc has at ref.
func UTCToLocalTime(trigger string, loc *time.Location, ref time.Time) (string, error) {
	c, err := ParseTriggerTime(trigger)
	if err != nil {
		return "", err
	}
	t := time.Date(2000, time.January, 1, c.Hour, c.Minute, 0, 0, time.UTC)
	return t.In(fixedOffset(loc, ref)).Format("15:04"), nil
}

// Schedule is either unscheduled or a UTC trigger time repeated every
// IntervalDays days.
type Schedule struct {
	scheduled bool
	trigger   Clock
	days      int
}

// Unscheduled returns the zero schedule.
func Unscheduled() Schedule {
	return Schedule{}
}

// Scheduled builds a schedule from a UTC HH:MM and a positive day count.
func Scheduled(utcTime string, days int) (Schedule, error) {
	c, err := ParseTriggerTime(utcTime)
	if err != nil {
		return Schedule{}, err
	}
	if days <= 0 {
		return Schedule{}, fmt.Errorf("%w: %d days", ErrInvalidInterval, days)
	}
	return Schedule{scheduled: true, trigger: c, days: days}, nil
}

// ScheduleOf reads the wire fields. A rule is scheduled only when
// trigger_time is a real time and interval is present; any other
// combination, including only one of the two being set, is unscheduled.
func ScheduleOf(triggerTime *string, interval *int) Schedule {
	if triggerTime == nil || interval == nil {
		return Unscheduled()
	}
	tt := strings.TrimSpace(*triggerTime)
	if tt == "" || tt == RealTimeTrigger {
		return Unscheduled()
	}
	c, err := ParseTriggerTime(tt)
	if err != nil {
		return Unscheduled()
	}
	return Schedule{scheduled: true, trigger: c, days: *interval}
}

// IsScheduled reports whether the schedule has a trigger time.
func (s Schedule) IsScheduled() bool {
	return s.scheduled
}

// TriggerTime is the UTC HH:MM, empty when unscheduled.
func (s Schedule) TriggerTime() string {
	if !s.scheduled {
		return ""
	}
	return s.trigger.String()
}

// IntervalDays is the raw day count, zero when unscheduled.
func (s Schedule) IntervalDays() int {
	return s.days
}

// Interval is the named cadence. Unknown day counts read as DefaultInterval.
func (s Schedule) Interval() Interval {
	if !s.scheduled {
		return IntervalNone
	}
	return DaysToInterval(s.days)
}

// Fields renders the schedule as the optional wire fields.
func (s Schedule) Fields() (*string, *int) {
	if !s.scheduled {
		return nil, nil
	}
	tt := s.trigger.String()
	days := s.days
	return &tt, &days
}

// String describes the schedule for list views.
func (s Schedule) String() string {
	if !s.scheduled {
		return "Real-time"
	}
	return fmt.Sprintf("%s at %s UTC", s.Interval().Label(), s.TriggerTime())
}

// NextRun returns the first trigger instant strictly after after.
func (s Schedule) NextRun(after time.Time) (time.Time, error) {
	if !s.scheduled {
		return time.Time{}, errors.New("rule is not scheduled")
	}
	spec := fmt.Sprintf("CRON_TZ=UTC %d %d * * *", s.trigger.Minute, s.trigger.Hour)
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("build cron schedule: %w", err)
	}
	return sched.Next(after), nil
}

// Upcoming previews the next n runs, spaced by the interval, starting
// from NextRun.
func (s Schedule) Upcoming(after time.Time, n int) ([]time.Time, error) {
	first, err := s.NextRun(after)
	if err != nil {
		return nil, err
	}
	days := s.days
	if days <= 0 {
		days, _ = DefaultInterval.Days()
	}
	runs := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		runs = append(runs, first.AddDate(0, 0, i*days))
	}
	return runs, nil
}
