// Package performance derives a 0-100 score and grade per team member from
// completed tasks. It only reads.
package performance

import (
	"math"
	"time"

	"taskflow/internal/models"
)

// Grades and their display colours.
const (
	GradeExcellent = "Excellent"
	GradeGood      = "Good"
	GradeAverage   = "Average"
	GradeNeedsWork = "Needs Work"
	GradeNoData    = "No Data"

	ColorExcellent = "#16a34a"
	ColorGood      = "#2563eb"
	ColorAverage   = "#f59e0b"
	ColorNeedsWork = "#dc2626"
	ColorNoData    = "#94a3b8"
)

// Score weights. They sum to 100.
const (
	weightOnTime       = 40
	weightEarly        = 20
	weightRevisions    = 25
	weightProductivity = 15

	revisionCeiling   = 3.0
	tasksPerDayTarget = 4.0
)

// CompletedTask is the slice of a completed task the score depends on.
type CompletedTask struct {
	Deadline      models.Date
	CompletedAt   *time.Time
	RevisionCount int
}

// Breakdown is the result of Compute. AvgRevisions and AvgTasksPerDay are
// rounded to one decimal; the score itself uses the exact values.
type Breakdown struct {
	Score          int     `json:"score"`
	Grade          string  `json:"grade"`
	GradeColor     string  `json:"grade_color"`
	OnTimeCount    int     `json:"on_time_count"`
	EarlyCount     int     `json:"early_count"`
	TotalCompleted int     `json:"total_completed"`
	AvgRevisions   float64 `json:"avg_revisions"`
	AvgTasksPerDay float64 `json:"avg_tasks_per_day"`
}

// Compute scores a set of completed tasks. An empty set yields the No Data
// sentinel with score 0.
func Compute(completed []CompletedTask) Breakdown {
	total := len(completed)
	if total == 0 {
		return Breakdown{Grade: GradeNoData, GradeColor: ColorNoData}
	}

	var onTime, early, revisions int
	days := map[string]struct{}{}
	for _, t := range completed {
		revisions += t.RevisionCount
		if t.CompletedAt == nil {
			continue
		}
		done := models.DateOf(*t.CompletedAt)
		days[done.String()] = struct{}{}
		if !done.After(t.Deadline) {
			onTime++
		}
		if done.Before(t.Deadline) {
			early++
		}
	}

	distinctDays := max(len(days), 1)
	avgRevisions := float64(revisions) / float64(total)
	avgPerDay := float64(total) / float64(distinctDays)

	onTimeRate := clamp01(float64(onTime) / float64(total))
	earlyRate := clamp01(float64(early) / float64(total))
	revisionPenalty := clamp01(avgRevisions / revisionCeiling)
	productivityRate := clamp01(avgPerDay / tasksPerDayTarget)

	score := int(math.Round(onTimeRate*weightOnTime +
		earlyRate*weightEarly +
		(1-revisionPenalty)*weightRevisions +
		productivityRate*weightProductivity))

	grade, color := GradeFor(score)
	return Breakdown{
		Score:          score,
		Grade:          grade,
		GradeColor:     color,
		OnTimeCount:    onTime,
		EarlyCount:     early,
		TotalCompleted: total,
		AvgRevisions:   round1(avgRevisions),
		AvgTasksPerDay: round1(avgPerDay),
	}
}

// GradeFor maps a score onto its grade and colour.
func GradeFor(score int) (string, string) {
	switch {
	case score >= 80:
		return GradeExcellent, ColorExcellent
	case score >= 60:
		return GradeGood, ColorGood
	case score >= 40:
		return GradeAverage, ColorAverage
	default:
		return GradeNeedsWork, ColorNeedsWork
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
