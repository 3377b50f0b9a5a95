package engine

import (
	"context"
	"time"

	"github.com/nhle/planhub/internal/gateway"
	"github.com/nhle/planhub/internal/model"
)

// HabitEngine extends the generic engine with the composed checkin
// toggle. The denormalized Checkins array and the checkin child rows
// must never diverge silently, so a failed toggle re-fetches the full
// habit state from the gateway instead of attempting a partial
// rollback.
type HabitEngine struct {
	*Engine[model.Habit, model.HabitPatch]
	checkins gateway.CheckinGateway
}

// NewHabitEngine creates a habit engine over the habit and checkin
// gateways.
func NewHabitEngine(
	habits gateway.Gateway[model.Habit, model.HabitPatch],
	checkins gateway.CheckinGateway,
	filter gateway.Filter,
) *HabitEngine {
	return &HabitEngine{
		Engine:   New(HabitSchema(), habits, filter),
		checkins: checkins,
	}
}

// ToggleCheckin flips the habit's completion for one calendar day:
// present becomes absent and vice versa. The array change is applied
// optimistically, then the corresponding child-row insert or delete
// is dispatched.
func (e *HabitEngine) ToggleCheckin(ctx context.Context, habitID, date string) error {
	habitID = e.Resolve(habitID)
	habit, ok := e.col.Get(habitID)
	if !ok {
		err := &gateway.NotFoundError{Kind: model.KindHabit, ID: habitID}
		e.col.SetError(err)
		return err
	}

	had := habit.HasCheckin(date)

	next := habit
	if had {
		next.Checkins = make([]string, 0, len(habit.Checkins))
		for _, d := range habit.Checkins {
			if d != date {
				next.Checkins = append(next.Checkins, d)
			}
		}
	} else {
		next.Checkins = append(append([]string(nil), habit.Checkins...), date)
	}
	next.NormalizeCheckins()
	next.UpdatedAt = time.Now().UTC()

	e.bumpSeq(habitID)
	e.beginWrite(habitID)
	e.col.Upsert(next, e.schema.PrependNew)

	var err error
	if had {
		err = e.checkins.Delete(ctx, habitID, date)
	} else {
		_, err = e.checkins.Insert(ctx, model.Checkin{
			HabitID:     habitID,
			WorkspaceID: habit.WorkspaceID,
			Date:        date,
		})
	}
	e.endWrite(habitID)

	if err != nil {
		// Re-fetch rather than roll back: the array and the child
		// rows must converge on the gateway's view.
		e.refetch(ctx, habitID)
		e.col.SetError(err)
		return err
	}
	return nil
}

// refetch replaces the local habit with the gateway's current state,
// checkins included. A failed re-fetch leaves the optimistic state in
// place; the surfaced error already marks the collection.
func (e *HabitEngine) refetch(ctx context.Context, habitID string) {
	habits, err := e.gw.FetchAll(ctx, gateway.Filter{
		Workspace: e.filter.Workspace,
		ID:        &habitID,
	})
	if err != nil || len(habits) == 0 {
		return
	}

	fresh := habits[0]
	fresh.NormalizeCheckins()
	e.col.Upsert(fresh, e.schema.PrependNew)
}
