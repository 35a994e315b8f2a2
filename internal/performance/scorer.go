package performance

import (
	"context"
	"log/slog"
	"sort"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/repository"
)

const (
	detailTimerLimit = 50
	detailPunchLimit = 30
)

// Store is what the scorer reads.
type Store interface {
	repository.TaskRepository
	repository.TimerRepository
	repository.PunchRepository
	repository.UserRepository
}

// UserScore is the performance summary of one member.
type UserScore struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	RoleName *string `json:"role_name"`
	Breakdown
	ActiveTasks         int     `json:"active_tasks"`
	ClientFeedbackCount int     `json:"client_feedback_count"`
	TotalTimeHours      float64 `json:"total_time_hours"`
}

// DetailUser identifies the member of a Detail.
type DetailUser struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	RoleName *string `json:"role_name"`
}

// Detail is the audit view of one member.
type Detail struct {
	User           DetailUser           `json:"user"`
	Tasks          []models.TaskView    `json:"tasks"`
	TimeLogs       []models.TaskTimeLog `json:"timeLogs"`
	PunchLogs      []models.TimeLog     `json:"punchLogs"`
	TotalTimeHours float64              `json:"totalTimeHours"`
}

// Scorer computes scores from stored tasks and timer sessions.
type Scorer struct {
	store  Store
	logger *slog.Logger
}

// New creates a Scorer.
func New(store Store, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{store: store, logger: logger}
}

// All scores every active non-admin member, ordered by name.
func (s *Scorer) All(ctx context.Context) ([]UserScore, error) {
	const op = "performance.All"
	members, err := s.store.ListMembers(ctx, 0)
	if err != nil {
		return nil, apperr.Wrap(err, op)
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	scores := make([]UserScore, 0, len(members))
	for _, m := range members {
		sc, err := s.Score(ctx, m)
		if err != nil {
			return nil, apperr.Wrap(err, op)
		}
		scores = append(scores, sc)
	}
	s.logger.Debug("scored members", slog.String("op", op), slog.Int("members", len(scores)))
	return scores, nil
}

// Score computes the summary of one user.
func (s *Scorer) Score(ctx context.Context, u models.User) (UserScore, error) {
	const op = "performance.Score"
	id := u.ID

	completed, err := s.store.ListTasks(ctx, models.TaskFilter{AssignedTo: &id, Status: models.StatusCompleted})
	if err != nil {
		return UserScore{}, apperr.Wrap(err, op)
	}
	active, err := s.store.CountTasks(ctx, models.TaskFilter{AssignedTo: &id, OpenOnly: true})
	if err != nil {
		return UserScore{}, apperr.Wrap(err, op)
	}
	revised, err := s.store.CountTasks(ctx, models.TaskFilter{AssignedTo: &id, Revised: true})
	if err != nil {
		return UserScore{}, apperr.Wrap(err, op)
	}
	secs, err := s.store.SumTaskSeconds(ctx, id)
	if err != nil {
		return UserScore{}, apperr.Wrap(err, op)
	}

	input := make([]CompletedTask, 0, len(completed))
	for _, t := range completed {
		input = append(input, CompletedTask{Deadline: t.Deadline, CompletedAt: t.CompletedAt, RevisionCount: t.RevisionCount})
	}

	return UserScore{
		ID:                  u.ID,
		Name:                u.Name,
		RoleName:            u.RoleName,
		Breakdown:           Compute(input),
		ActiveTasks:         active,
		ClientFeedbackCount: revised,
		TotalTimeHours:      hours(secs),
	}, nil
}

// Detail returns a member's tasks, latest timer sessions and punch records.
func (s *Scorer) Detail(ctx context.Context, userID int64) (Detail, error) {
	const op = "performance.Detail"
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Detail{}, apperr.Wrap(err, op)
	}

	tasks, err := s.store.ListTasks(ctx, models.TaskFilter{AssignedTo: &userID, Order: models.OrderDeadlineDesc})
	if err != nil {
		return Detail{}, apperr.Wrap(err, op)
	}
	timers, err := s.store.RecentTaskTimeLogs(ctx, userID, detailTimerLimit)
	if err != nil {
		return Detail{}, apperr.Wrap(err, op)
	}
	punches, err := s.store.RecentTimeLogs(ctx, userID, detailPunchLimit)
	if err != nil {
		return Detail{}, apperr.Wrap(err, op)
	}

	var secs int64
	for _, l := range timers {
		secs += l.DurationSecs
	}

	return Detail{
		User:           DetailUser{ID: u.ID, Name: u.Name, RoleName: u.RoleName},
		Tasks:          tasks,
		TimeLogs:       timers,
		PunchLogs:      punches,
		TotalTimeHours: hours(secs),
	}, nil
}

func hours(secs int64) float64 {
	return round1(float64(secs) / 3600)
}
