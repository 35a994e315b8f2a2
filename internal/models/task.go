package models

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending        Status = "pending"
	StatusInProgress     Status = "in_progress"
	StatusOnHold         Status = "on_hold"
	StatusClientFeedback Status = "client_feedback"
	StatusCompleted      Status = "completed"
	// StatusRevision is written by the feedback action only.
	StatusRevision Status = "revision"
)

// CanonicalStatuses are the values accepted by the status-only update.
var CanonicalStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusOnHold,
	StatusClientFeedback,
	StatusCompleted,
}

// Canonical reports whether s is one of CanonicalStatuses.
func (s Status) Canonical() bool {
	for _, c := range CanonicalStatuses {
		if s == c {
			return true
		}
	}
	return false
}

// Valid reports whether s is any known status, revision included.
func (s Status) Valid() bool {
	return s.Canonical() || s == StatusRevision
}

// StopsTimer reports whether entering s ends work on the task.
func (s Status) StopsTimer() bool {
	return s == StatusCompleted || s == StatusClientFeedback
}

// Urgency drives the buffer deadline and list ordering.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Task is a deliverable assigned to a team member.
type Task struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	ClientName     *string    `json:"client_name"`
	TaskTypeID     int64      `json:"task_type_id"`
	Urgency        Urgency    `json:"urgency"`
	Deadline       Date       `json:"deadline"`
	BufferDeadline Date       `json:"buffer_deadline"`
	AssignedTo     *int64     `json:"assigned_to"`
	Status         Status     `json:"status"`
	Progress       int        `json:"progress"`
	RevisionCount  int        `json:"revision_count"`
	FeedbackNotes  *string    `json:"feedback_notes"`
	CompletedAt    *time.Time `json:"completed_at"`
	ETA            *Date      `json:"eta"`
	CreatedBy      *int64     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsAssignedTo reports whether userID is the task's assignee.
func (t Task) IsAssignedTo(userID int64) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// TaskView is a task joined with the names the UI shows next to it.
type TaskView struct {
	Task
	AssigneeName *string `json:"assignee_name"`
	TaskTypeName *string `json:"task_type_name"`
	RoleName     *string `json:"role_name"`
}

// TaskOrder selects the ordering of task listings.
type TaskOrder int

const (
	// OrderUrgency sorts by urgency, critical first, then by deadline.
	OrderUrgency TaskOrder = iota
	// OrderDeadline sorts by deadline, then by urgency.
	OrderDeadline
	// OrderDeadlineDesc sorts by deadline, latest first.
	OrderDeadlineDesc
)

// TaskFilter narrows task listings. Zero values do not filter. From and To
// bound the deadline inclusively.
type TaskFilter struct {
	Status     Status
	Urgency    Urgency
	AssignedTo *int64
	Deadline   *Date
	From       *Date
	To         *Date
	OpenOnly   bool
	Revised    bool
	Order      TaskOrder
}
