package tasks

import (
	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

// Policy decides which status changes the engine accepts. The zero value is
// permissive: every change is allowed and the engine only maintains the
// derived fields around it.
type Policy struct {
	allowed map[models.Status]map[models.Status]bool
}

// Permissive allows any transition.
func Permissive() Policy { return Policy{} }

// Strict allows the delivery workflow only. Completed is terminal and every
// state can be sent back for revision.
func Strict() Policy {
	return NewPolicy(map[models.Status][]models.Status{
		models.StatusPending:        {models.StatusInProgress, models.StatusOnHold, models.StatusCompleted, models.StatusRevision},
		models.StatusInProgress:     {models.StatusPending, models.StatusOnHold, models.StatusClientFeedback, models.StatusCompleted, models.StatusRevision},
		models.StatusOnHold:         {models.StatusInProgress, models.StatusCompleted, models.StatusRevision},
		models.StatusClientFeedback: {models.StatusInProgress, models.StatusCompleted, models.StatusRevision},
		models.StatusRevision:       {models.StatusInProgress, models.StatusClientFeedback, models.StatusCompleted},
		models.StatusCompleted:      {models.StatusRevision},
	})
}

// NewPolicy builds a policy from a table of allowed targets per source status.
func NewPolicy(table map[models.Status][]models.Status) Policy {
	allowed := make(map[models.Status]map[models.Status]bool, len(table))
	for from, targets := range table {
		set := make(map[models.Status]bool, len(targets))
		for _, to := range targets {
			set[to] = true
		}
		allowed[from] = set
	}
	return Policy{allowed: allowed}
}

// Strict reports whether the policy restricts transitions.
func (p Policy) Strict() bool { return p.allowed != nil }

// Allow reports whether a task may move from one status to another.
// Staying in place is always allowed.
func (p Policy) Allow(from, to models.Status) bool {
	if from == to || p.allowed == nil {
		return true
	}
	return p.allowed[from][to]
}

// Check is Allow returning an InvalidArgument error.
func (p Policy) Check(op string, from, to models.Status) error {
	if !p.Allow(from, to) {
		return apperr.Newf(apperr.InvalidArgument, op, "cannot move task from %s to %s", from, to)
	}
	return nil
}
