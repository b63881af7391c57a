// Package analyzer derives topic statistics and activity metrics from a
// user's stored history. Every function is pure: callers pass "now" and the
// reference time zone explicitly.
package analyzer

import (
	"sort"
	"strings"
	"time"

	"leetmentor/internal/domain/model"
)

const secondsPerDay = 86400

// Clock returns the current time. Services hold one so tests can pin it.
type Clock func() time.Time

// TopicStats counts each row's topics under Solved when the row is solved,
// otherwise under Attempted. Rows without topics count nowhere.
func TopicStats(rows []model.HistoryEntry) model.TopicStats {
	stats := model.NewTopicStats()
	for _, row := range rows {
		bucket := stats.Attempted
		if row.Status == model.StatusSolved {
			bucket = stats.Solved
		}
		for _, raw := range row.Topics {
			topic := strings.ToLower(strings.TrimSpace(raw))
			if topic == "" {
				continue
			}
			bucket[topic]++
		}
	}
	return stats
}

// SolvedSince counts accepted submissions with submitted_at >= now - days*86400.
func SolvedSince(subs []model.Submission, now time.Time, days int) int {
	cutoff := now.Unix() - int64(days)*secondsPerDay
	n := 0
	for _, s := range subs {
		if accepted(s) && s.SubmittedAt >= cutoff {
			n++
		}
	}
	return n
}

// Streak is the number of consecutive calendar days, in loc, with at least one
// accepted submission, counted back from the most recent such day.
func Streak(subs []model.Submission, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[time.Time]struct{})
	days := make([]time.Time, 0, len(subs))
	for _, s := range subs {
		if !accepted(s) {
			continue
		}
		d := calendarDay(s.Time(), loc)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 1
	for i := 1; i < len(days); i++ {
		if !days[i].Equal(days[i-1].AddDate(0, 0, -1)) {
			break
		}
		streak++
	}
	return streak
}

// Activity bundles the 7/30-day windows and the streak.
func Activity(subs []model.Submission, now time.Time, loc *time.Location) model.ActivityMetrics {
	return model.ActivityMetrics{
		SolvedLast7Days:  SolvedSince(subs, now, 7),
		SolvedLast30Days: SolvedSince(subs, now, 30),
		StreakDays:       Streak(subs, loc),
	}
}

// calendarDay maps t to midnight UTC of its date in loc, so day arithmetic
// never crosses a DST boundary.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Judge imports carry status solved. An empty status is treated the same.
func accepted(s model.Submission) bool {
	return s.Status == model.StatusSolved || s.Status == ""
}
