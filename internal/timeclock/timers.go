package timeclock

import (
	"context"
	"log/slog"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

// StartTimer closes any running timer of the user, opens a new session on
// the task and moves a pending task to in_progress.
func (c *Clock) StartTimer(ctx context.Context, userID, taskID int64) (models.TaskTimeLog, error) {
	const op = "timeclock.StartTimer"
	now := c.clock()

	var out models.TaskTimeLog
	err := c.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := c.store.GetTask(ctx, taskID); err != nil {
			return err
		}
		if err := c.closeOpen(ctx, userID, 0, now); err != nil {
			return err
		}
		id, err := c.store.InsertTaskTimeLog(ctx, models.TaskTimeLog{TaskID: taskID, UserID: userID, StartedAt: now})
		if err != nil {
			return err
		}
		if err := c.store.StartTask(ctx, taskID, now); err != nil {
			return err
		}
		out, err = c.store.GetTaskTimeLog(ctx, id)
		return err
	})
	if err != nil {
		return models.TaskTimeLog{}, apperr.Wrap(err, op)
	}

	c.logger.Info("timer started", slog.String("op", op), slog.Int64("user_id", userID), slog.Int64("task_id", taskID))
	return out, nil
}

// StopTimer closes the user's running session on the task.
func (c *Clock) StopTimer(ctx context.Context, userID, taskID int64) (models.TaskTimeLog, error) {
	const op = "timeclock.StopTimer"
	now := c.clock()

	var out models.TaskTimeLog
	err := c.store.WithinTx(ctx, func(ctx context.Context) error {
		open, err := c.store.OpenTaskTimeLogs(ctx, userID, taskID)
		if err != nil {
			return err
		}
		if len(open) == 0 {
			return apperr.ErrNoActiveTimer
		}
		if err := c.close(ctx, open[0], now); err != nil {
			return err
		}
		out, err = c.store.GetTaskTimeLog(ctx, open[0].ID)
		return err
	})
	if err != nil {
		return models.TaskTimeLog{}, apperr.Wrap(err, op)
	}

	c.logger.Info("timer stopped",
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.Int64("task_id", taskID),
		slog.Int64("duration_secs", out.DurationSecs),
	)
	return out, nil
}

// StopRunning closes the user's running session on the task, if any.
func (c *Clock) StopRunning(ctx context.Context, userID, taskID int64) error {
	return apperr.Wrap(c.closeOpen(ctx, userID, taskID, c.clock()), "timeclock.StopRunning")
}

// ActiveTimer returns the user's running session, or nil.
func (c *Clock) ActiveTimer(ctx context.Context, userID int64) (*models.TaskTimeLog, error) {
	open, err := c.store.OpenTaskTimeLogs(ctx, userID, 0)
	if err != nil {
		return nil, apperr.Wrap(err, "timeclock.ActiveTimer")
	}
	if len(open) == 0 {
		return nil, nil
	}
	return &open[0], nil
}

// closeOpen ends the user's running sessions. A taskID of zero closes them
// on every task.
func (c *Clock) closeOpen(ctx context.Context, userID, taskID int64, now time.Time) error {
	return c.store.WithinTx(ctx, func(ctx context.Context) error {
		open, err := c.store.OpenTaskTimeLogs(ctx, userID, taskID)
		if err != nil {
			return err
		}
		for _, l := range open {
			if err := c.close(ctx, l, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Clock) close(ctx context.Context, l models.TaskTimeLog, now time.Time) error {
	secs := int64(now.Sub(l.StartedAt) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return c.store.CloseTaskTimeLog(ctx, l.ID, now, secs)
}
