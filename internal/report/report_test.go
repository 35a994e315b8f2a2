package report

import (
	"bytes"
	"strings"
	"testing"

	"taskflow/internal/models"
	"taskflow/internal/performance"
)

func TestScores(t *testing.T) {
	role := "Designer"
	scores := []performance.UserScore{
		{ID: 1, Name: "Asha", RoleName: &role, Breakdown: performance.Breakdown{
			Score: 69, Grade: performance.GradeGood, GradeColor: performance.ColorGood,
			OnTimeCount: 2, TotalCompleted: 3, AvgRevisions: 0.5, AvgTasksPerDay: 1.5,
		}, ActiveTasks: 4, TotalTimeHours: 12.25},
		{ID: 2, Name: "Bram", Breakdown: performance.Breakdown{
			Grade: performance.GradeNoData, GradeColor: performance.ColorNoData,
		}},
	}

	var buf bytes.Buffer
	if err := Scores(&buf, scores); err != nil {
		t.Fatalf("Scores: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Team performance", "Asha", "Designer", "69", "Good", "2/3", "Bram", "No Data"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScoresEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Scores(&buf, nil); err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if !strings.Contains(buf.String(), "no active members") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestPunches(t *testing.T) {
	r := models.MonthlyPunchReport{
		Month:      "2024-06",
		MonthStart: models.NewDate(2024, 6, 1),
		MonthEnd:   models.NewDate(2024, 6, 30),
		Users: []models.UserPunchSummary{
			{UserID: 1, UserName: "Asha", Records: make([]models.TimeLog, 2), TotalMinutes: 545},
		},
		TotalRecords: 2,
	}
	var buf bytes.Buffer
	if err := Punches(&buf, r); err != nil {
		t.Fatalf("Punches: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"2024-06", "2024-06-01", "2024-06-30", "Asha", "9h 05m", "2 records"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
