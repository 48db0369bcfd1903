// Package schedule computes send instants from per-recipient business-hour
// policies.
package schedule

import (
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/obranet/valuation-notifier/internal/model"
)

// fallbackDelay is used when a policy is missing, inactive or unusable.
const fallbackDelay = 5 * time.Minute

// minimumDelay keeps same-day sends from firing before the dispatcher has a
// chance to pick them up in order.
const minimumDelay = 5 * time.Minute

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "MONDAY",
	time.Tuesday:   "TUESDAY",
	time.Wednesday: "WEDNESDAY",
	time.Thursday:  "THURSDAY",
	time.Friday:    "FRIDAY",
	time.Saturday:  "SATURDAY",
	time.Sunday:    "SUNDAY",
}

// NextSendTime returns the next instant at which a notification governed by
// cfg may be sent, looking at most seven days ahead.
func NextSendTime(now time.Time, cfg *model.ScheduleConfig) time.Time {
	if cfg == nil || !cfg.Active {
		return now.Add(fallbackDelay)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		zlog.Logger.Warn().Str("timezone", cfg.Timezone).Msg("unknown timezone in schedule config, using fallback delay")
		return now.Add(fallbackDelay)
	}

	start, err1 := parseClock(cfg.WindowStart)
	end, err2 := parseClock(cfg.WindowEnd)
	if err1 != nil || err2 != nil {
		zlog.Logger.Warn().Str("start", cfg.WindowStart).Str("end", cfg.WindowEnd).Msg("unparseable send window, using fallback delay")
		return now.Add(fallbackDelay)
	}

	local := now.In(loc)

	for offset := 0; offset <= 7; offset++ {
		candidate := local.AddDate(0, 0, offset)
		if !workingDay(cfg.WorkingDays, candidate.Weekday()) {
			continue
		}

		windowStart := at(candidate, start, loc)
		windowEnd := at(candidate, end, loc)

		if offset == 0 {
			if local.Before(windowEnd) {
				earliest := local.Add(minimumDelay)
				if earliest.Before(windowStart) {
					return windowStart
				}
				return earliest
			}
			continue
		}

		return windowStart
	}

	// No working day within a week points at a broken policy.
	zlog.Logger.Warn().Str("config", cfg.Name).Msg("no working day within 7 days, using fallback delay")
	return now.Add(fallbackDelay)
}

// WithinWindow reports whether the instant falls on a working day inside the
// configured send window.
func WithinWindow(now time.Time, cfg *model.ScheduleConfig) bool {
	if cfg == nil || !cfg.Active {
		return true
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		zlog.Logger.Warn().Str("timezone", cfg.Timezone).Msg("unknown timezone in schedule config, allowing send")
		return true
	}

	start, err1 := parseClock(cfg.WindowStart)
	end, err2 := parseClock(cfg.WindowEnd)
	if err1 != nil || err2 != nil {
		zlog.Logger.Warn().Str("start", cfg.WindowStart).Str("end", cfg.WindowEnd).Msg("unparseable send window, allowing send")
		return true
	}

	local := now.In(loc)
	if !workingDay(cfg.WorkingDays, local.Weekday()) {
		return false
	}

	windowStart := at(local, start, loc)
	windowEnd := at(local, end, loc)

	return !local.Before(windowStart) && !local.After(windowEnd)
}

func workingDay(days []string, wd time.Weekday) bool {
	name := weekdayNames[wd]
	for _, d := range days {
		if d == name {
			return true
		}
	}
	return false
}

func parseClock(s string) (time.Time, error) {
	return time.Parse("15:04", s)
}

func at(day time.Time, clock time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
}
