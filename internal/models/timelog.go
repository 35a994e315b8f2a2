package models

import "time"

// TimeLog is a user's punch record for one calendar date.
type TimeLog struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	Date            Date       `json:"date"`
	PunchIn         *time.Time `json:"punch_in"`
	PunchOut        *time.Time `json:"punch_out"`
	DurationMinutes int        `json:"duration_minutes"`
	UserName        string     `json:"user_name,omitempty"`
	RoleName        *string    `json:"role_name,omitempty"`
}

// Open reports whether the user punched in and has not punched out.
func (l TimeLog) Open() bool {
	return l.PunchIn != nil && l.PunchOut == nil
}

// TaskTimeLog is one timer session of a user on a task.
type TaskTimeLog struct {
	ID           int64      `json:"id"`
	TaskID       int64      `json:"task_id"`
	UserID       int64      `json:"user_id"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at"`
	DurationSecs int64      `json:"duration_secs"`
	TaskTitle    string     `json:"task_title,omitempty"`
}

// Running reports whether the session is still open.
func (l TaskTimeLog) Running() bool {
	return l.EndedAt == nil
}

// UserPunchSummary groups a user's punch records over a period.
type UserPunchSummary struct {
	UserID       int64     `json:"user_id"`
	UserName     string    `json:"user_name"`
	RoleName     *string   `json:"role_name"`
	Records      []TimeLog `json:"records"`
	TotalMinutes int       `json:"total_minutes"`
}

// MonthlyPunchReport is the punch summary of one calendar month.
type MonthlyPunchReport struct {
	Month        string             `json:"month"`
	MonthStart   Date               `json:"monthStart"`
	MonthEnd     Date               `json:"monthEnd"`
	Users        []UserPunchSummary `json:"users"`
	TotalRecords int                `json:"total_records"`
}
