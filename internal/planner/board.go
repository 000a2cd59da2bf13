package planner

import (
	"slices"
	"sync"
	"time"

	"github.com/bensuskins/harvest-planner/internal/models"
)

// Board is the bucket view of one week. The canonical plan list is the source
// of truth; the buckets are rebuilt from it and only run ahead of it while a
// move is waiting on persistence.
type Board struct {
	mu               sync.Mutex
	calendar         Calendar
	days             []string
	plans            []models.Plan
	index            *ReferenceIndex
	referenceVersion uint64
	buckets          Buckets
	generation       uint64
}

func NewBoard(calendar Calendar, days []string, plans []models.Plan, index *ReferenceIndex, referenceVersion uint64) *Board {
	board := &Board{
		calendar:         calendar,
		days:             slices.Clone(days),
		plans:            slices.Clone(plans),
		index:            index,
		referenceVersion: referenceVersion,
	}
	board.rebuildLocked(nil)
	return board
}

func (board *Board) Calendar() Calendar {
	return board.calendar
}

func (board *Board) Days() []string {
	return slices.Clone(board.days)
}

func (board *Board) Plans() []models.Plan {
	board.mu.Lock()
	defer board.mu.Unlock()
	return slices.Clone(board.plans)
}

// Snapshot returns a copy of the current buckets, optimistic moves included.
func (board *Board) Snapshot() Buckets {
	board.mu.Lock()
	defer board.mu.Unlock()
	return board.buckets.Clone()
}

func (board *Board) ReferenceVersion() uint64 {
	board.mu.Lock()
	defer board.mu.Unlock()
	return board.referenceVersion
}

// Rebuild discards any optimistic state and recomputes the buckets.
func (board *Board) Rebuild() {
	board.mu.Lock()
	defer board.mu.Unlock()
	board.rebuildLocked(nil)
}

// Reset replaces the canonical plans and reference index, then rebuilds.
func (board *Board) Reset(plans []models.Plan, index *ReferenceIndex, referenceVersion uint64) {
	board.reset(plans, index, referenceVersion, nil)
}

func (board *Board) reset(plans []models.Plan, index *ReferenceIndex, referenceVersion uint64, pending map[string]time.Time) {
	board.mu.Lock()
	defer board.mu.Unlock()
	board.plans = slices.Clone(plans)
	board.index = index
	board.referenceVersion = referenceVersion
	board.rebuildLocked(pending)
}

func (board *Board) rebuild(pending map[string]time.Time) {
	board.mu.Lock()
	defer board.mu.Unlock()
	board.rebuildLocked(pending)
}

// rebuildLocked buckets the canonical plans. Plans named in pending are placed
// on their pending date; the canonical list keeps the stored one.
func (board *Board) rebuildLocked(pending map[string]time.Time) {
	plans := board.plans
	if len(pending) > 0 {
		plans = slices.Clone(board.plans)
		for i := range plans {
			if date, ok := pending[plans[i].ID]; ok {
				plans[i].Date = date
			}
		}
	}
	board.buckets = Schedule(plans, board.days, board.index, board.calendar)
	board.generation++
}

// applyMove performs the optimistic half of a move and returns its command.
// Nothing changes when the request no longer matches the buckets.
func (board *Board) applyMove(request MoveRequest) (*MoveCommand, error) {
	board.mu.Lock()
	defer board.mu.Unlock()

	source, ok := board.buckets[request.SourceDay]
	if !ok {
		return nil, ErrStaleMove
	}
	destination, ok := board.buckets[request.DestDay]
	if !ok {
		return nil, ErrStaleMove
	}
	if request.SourceIndex < 0 || request.SourceIndex >= len(source) {
		return nil, ErrStaleMove
	}
	moving := source[request.SourceIndex]
	if moving.Plan.ID != request.PlanID {
		return nil, ErrStaleMove
	}

	newDate, err := board.calendar.ParseDayKey(request.DestDay)
	if err != nil {
		return nil, ErrStaleMove
	}

	remaining := make([]EnrichedPlan, 0, len(source)-1)
	remaining = append(remaining, source[:request.SourceIndex]...)
	remaining = append(remaining, source[request.SourceIndex+1:]...)

	target := remaining
	if request.DestDay != request.SourceDay {
		target = slices.Clone(destination)
	}
	destIndex := min(max(request.DestIndex, 0), len(target))

	moved := moving
	moved.Plan.Date = newDate
	target = slices.Insert(target, destIndex, moved)

	if request.DestDay != request.SourceDay {
		board.buckets[request.SourceDay] = remaining
	}
	board.buckets[request.DestDay] = target

	applied := request
	applied.DestIndex = destIndex
	return newMoveCommand(applied, moving.Plan.Date, newDate, board.generation), nil
}

// confirmMove writes a persisted move into the canonical plans. The buckets
// already show it unless they were rebuilt while the move was pending; pending
// holds the dates of the moves still unresolved.
func (board *Board) confirmMove(command *MoveCommand, pending map[string]time.Time) {
	board.mu.Lock()
	defer board.mu.Unlock()

	for i := range board.plans {
		if board.plans[i].ID == command.Request.PlanID {
			board.plans[i].Date = command.NewDate
			break
		}
	}
	if board.generation != command.generation {
		board.rebuildLocked(pending)
	}
}
