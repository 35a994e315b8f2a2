// Package report renders performance and punch summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"taskflow/internal/models"
	"taskflow/internal/performance"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Scores writes a table with one row per member. The grade column uses the
// grade's display colour.
func Scores(w io.Writer, scores []performance.UserScore) error {
	if len(scores) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("no active members"))
		return err
	}

	rows := make([][]string, 0, len(scores))
	for _, s := range scores {
		rows = append(rows, []string{
			s.Name,
			deref(s.RoleName),
			strconv.Itoa(s.Score),
			s.Grade,
			fmt.Sprintf("%d/%d", s.OnTimeCount, s.TotalCompleted),
			strconv.Itoa(s.EarlyCount),
			strconv.FormatFloat(s.AvgRevisions, 'f', 1, 64),
			strconv.FormatFloat(s.AvgTasksPerDay, 'f', 1, 64),
			strconv.Itoa(s.ActiveTasks),
			strconv.FormatFloat(s.TotalTimeHours, 'f', 1, 64),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("MEMBER", "ROLE", "SCORE", "GRADE", "ON TIME", "EARLY", "REVISIONS", "PER DAY", "ACTIVE", "HOURS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row >= 0 && row < len(scores) {
				return cellStyle.Foreground(lipgloss.Color(scores[row].GradeColor))
			}
			return cellStyle
		})

	_, err := fmt.Fprintf(w, "%s\n%s\n", titleStyle.Render("Team performance"), t.Render())
	return err
}

// Punches writes the monthly punch report, one row per member.
func Punches(w io.Writer, r models.MonthlyPunchReport) error {
	title := titleStyle.Render(fmt.Sprintf("Attendance %s (%s to %s)", r.Month, r.MonthStart, r.MonthEnd))
	if len(r.Users) == 0 {
		_, err := fmt.Fprintf(w, "%s\n%s\n", title, mutedStyle.Render("no punch records"))
		return err
	}

	rows := make([][]string, 0, len(r.Users))
	for _, u := range r.Users {
		rows = append(rows, []string{
			u.UserName,
			deref(u.RoleName),
			strconv.Itoa(len(u.Records)),
			formatMinutes(u.TotalMinutes),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("MEMBER", "ROLE", "DAYS", "WORKED").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n", title, t.Render(),
		mutedStyle.Render(fmt.Sprintf("%d records", r.TotalRecords)))
	return err
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
