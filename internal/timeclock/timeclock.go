// Package timeclock keeps the two clocks of a user: the daily punch record
// and the per-task timer. Each allows a single open session per user.
package timeclock

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/repository"
)

// Store is the persistence the clock needs.
type Store interface {
	repository.Transactor
	repository.TaskRepository
	repository.TimerRepository
	repository.PunchRepository
}

// Clock records punches and timer sessions.
type Clock struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Clock.
func New(store Store, logger *slog.Logger) *Clock {
	if logger == nil {
		logger = slog.Default()
	}
	return &Clock{store: store, logger: logger, now: time.Now}
}

func (c *Clock) clock() time.Time {
	return c.now().UTC().Truncate(time.Second)
}

// Today is the current UTC calendar date.
func (c *Clock) Today() models.Date {
	return models.DateOf(c.clock())
}

// PunchIn opens today's punch record.
func (c *Clock) PunchIn(ctx context.Context, userID int64) (models.TimeLog, error) {
	const op = "timeclock.PunchIn"
	now := c.clock()
	today := models.DateOf(now)

	var out models.TimeLog
	err := c.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := c.store.GetTimeLog(ctx, userID, today)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			_, err = c.store.InsertTimeLog(ctx, models.TimeLog{UserID: userID, Date: today, PunchIn: &now})
			if errors.Is(err, apperr.ErrConflict) {
				return apperr.ErrAlreadyPunchedIn
			}
			if err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.PunchIn != nil:
			return apperr.ErrAlreadyPunchedIn
		default:
			if err := c.store.SetPunchIn(ctx, existing.ID, now); err != nil {
				return err
			}
		}
		out, err = c.store.GetTimeLog(ctx, userID, today)
		return err
	})
	if err != nil {
		return models.TimeLog{}, apperr.Wrap(err, op)
	}

	c.logger.Info("punched in", slog.String("op", op), slog.Int64("user_id", userID), slog.String("date", today.String()))
	return out, nil
}

// PunchOut closes today's punch record and stores the worked minutes.
func (c *Clock) PunchOut(ctx context.Context, userID int64) (models.TimeLog, error) {
	const op = "timeclock.PunchOut"
	now := c.clock()
	today := models.DateOf(now)

	var out models.TimeLog
	err := c.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := c.store.GetTimeLog(ctx, userID, today)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			return apperr.ErrNotPunchedIn
		case err != nil:
			return err
		case existing.PunchIn == nil:
			return apperr.ErrNotPunchedIn
		case existing.PunchOut != nil:
			return apperr.ErrAlreadyPunchedOut
		}

		minutes := int(math.Round(now.Sub(*existing.PunchIn).Minutes()))
		if err := c.store.SetPunchOut(ctx, existing.ID, now, minutes); err != nil {
			return err
		}
		out, err = c.store.GetTimeLog(ctx, userID, today)
		return err
	})
	if err != nil {
		return models.TimeLog{}, apperr.Wrap(err, op)
	}

	c.logger.Info("punched out",
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.Int("duration_minutes", out.DurationMinutes),
	)
	return out, nil
}

// TodayLog returns today's punch record, or an empty one when the user has
// not punched yet.
func (c *Clock) TodayLog(ctx context.Context, userID int64) (models.TimeLog, error) {
	today := c.Today()
	l, err := c.store.GetTimeLog(ctx, userID, today)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.TimeLog{UserID: userID, Date: today}, nil
	}
	if err != nil {
		return models.TimeLog{}, apperr.Wrap(err, "timeclock.TodayLog")
	}
	return l, nil
}

// DailySummary lists every punch record of a date, earliest punch first.
func (c *Clock) DailySummary(ctx context.Context, date models.Date) ([]models.TimeLog, error) {
	if date.IsZero() {
		date = c.Today()
	}
	logs, err := c.store.ListTimeLogs(ctx, date, date)
	if err != nil {
		return nil, apperr.Wrap(err, "timeclock.DailySummary")
	}
	return logs, nil
}

// MonthlySummary groups the punch records of a month ("2006-01") by user,
// ordered by user name. An empty month means the current one.
func (c *Clock) MonthlySummary(ctx context.Context, month string) (models.MonthlyPunchReport, error) {
	const op = "timeclock.MonthlySummary"
	var first models.Date
	if month == "" {
		first, _ = c.Today().MonthRange()
	} else {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return models.MonthlyPunchReport{}, apperr.Newf(apperr.InvalidArgument, op, "month must be YYYY-MM, got %q", month)
		}
		first = models.DateOf(t)
	}
	start, end := first.MonthRange()

	logs, err := c.store.ListTimeLogs(ctx, start, end)
	if err != nil {
		return models.MonthlyPunchReport{}, apperr.Wrap(err, op)
	}

	byUser := map[int64]*models.UserPunchSummary{}
	for _, l := range logs {
		s, ok := byUser[l.UserID]
		if !ok {
			s = &models.UserPunchSummary{UserID: l.UserID, UserName: l.UserName, RoleName: l.RoleName}
			byUser[l.UserID] = s
		}
		s.Records = append(s.Records, l)
		s.TotalMinutes += l.DurationMinutes
	}

	users := make([]models.UserPunchSummary, 0, len(byUser))
	for _, s := range byUser {
		users = append(users, *s)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].UserName != users[j].UserName {
			return users[i].UserName < users[j].UserName
		}
		return users[i].UserID < users[j].UserID
	})

	return models.MonthlyPunchReport{
		Month:        start.Time().Format("2006-01"),
		MonthStart:   start,
		MonthEnd:     end,
		Users:        users,
		TotalRecords: len(logs),
	}, nil
}
