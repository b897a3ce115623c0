package services

import (
	"fmt"
	"math/rand"
	"time"
)

// followUpFormat renders a long-form date-time, e.g.
// "Monday, October 21, 2024 at 3:04 PM".
const followUpFormat = "Monday, January 2, 2006 at 3:04 PM"

// FollowUpScheduler produces follow-up appointment dates relative to a fixed
// reference "today".
//
// The reference date is a deployment-time constant rather than the wall
// clock. That keeps generated schedules deterministic relative to
// configuration, which the tests rely on; do not swap in time.Now here.
// Schedule is not idempotent: callers needing a stable date for a visit must
// cache the first result.
type FollowUpScheduler struct {
	referenceDate time.Time
	rng           *rand.Rand
}

// NewFollowUpScheduler creates a scheduler around the given reference date
func NewFollowUpScheduler(referenceDate time.Time) *FollowUpScheduler {
	return &FollowUpScheduler{
		referenceDate: referenceDate,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewFollowUpSchedulerWithSource creates a scheduler with an injected random
// source
func NewFollowUpSchedulerWithSource(referenceDate time.Time, src rand.Source) *FollowUpScheduler {
	return &FollowUpScheduler{
		referenceDate: referenceDate,
		rng:           rand.New(src),
	}
}

// Schedule returns a follow-up date between minDays and maxDays (inclusive)
// after the reference date, at a random time within business hours
// (9:00-17:59), formatted as a long-form date-time string.
func (s *FollowUpScheduler) Schedule(minDays, maxDays int) (string, error) {
	followUp, err := s.ScheduleTime(minDays, maxDays)
	if err != nil {
		return "", err
	}
	return followUp.Format(followUpFormat), nil
}

// ScheduleTime is Schedule without the formatting step
func (s *FollowUpScheduler) ScheduleTime(minDays, maxDays int) (time.Time, error) {
	if minDays < 0 || maxDays < minDays {
		return time.Time{}, fmt.Errorf("invalid follow-up window: min=%d max=%d", minDays, maxDays)
	}

	days := minDays + s.rng.Intn(maxDays-minDays+1)
	hour := 9 + s.rng.Intn(9) // 9..17
	minute := s.rng.Intn(60)

	followUp := s.referenceDate.AddDate(0, 0, days)
	return time.Date(
		followUp.Year(), followUp.Month(), followUp.Day(),
		hour, minute, 0, 0, followUp.Location(),
	), nil
}
