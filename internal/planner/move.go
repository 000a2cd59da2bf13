package planner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bensuskins/harvest-planner/internal/models"
)

var (
	ErrStaleMove    = errors.New("move does not match the current board")
	ErrMoveInFlight = errors.New("plan already has a move in flight")
)

// GenericMoveFailure is shown when a failed move carries no usable message.
const GenericMoveFailure = "Could not move harvest plan"

// MoveRequest describes a drag from one bucket position to another.
type MoveRequest struct {
	SourceDay   string `json:"source_day"`
	SourceIndex int    `json:"source_index"`
	DestDay     string `json:"dest_day"`
	DestIndex   int    `json:"dest_index"`
	PlanID      string `json:"plan_id"`
}

func (request MoveRequest) IsNoOp() bool {
	return request.SourceDay == request.DestDay && request.SourceIndex == request.DestIndex
}

type MoveState int

const (
	MoveStateIdle MoveState = iota
	MoveStateNoOp
	MoveStateOptimisticApplied
	MoveStatePersisting
	MoveStateConfirmed
	MoveStateRolledBack
)

func (state MoveState) String() string {
	switch state {
	case MoveStateIdle:
		return "idle"
	case MoveStateNoOp:
		return "no-op"
	case MoveStateOptimisticApplied:
		return "optimistic-applied"
	case MoveStatePersisting:
		return "persisting"
	case MoveStateConfirmed:
		return "confirmed"
	case MoveStateRolledBack:
		return "rolled-back"
	}
	return "unknown"
}

// Persister stores partial plan updates.
type Persister interface {
	Update(ctx context.Context, planID string, patch models.PlanPatch) error
}

// PersistError is a persistence failure carrying text meant for the user.
type PersistError struct {
	Title   string
	Message string
	Err     error
}

func (err *PersistError) Error() string {
	switch {
	case err.Message != "":
		return err.Message
	case err.Title != "":
		return err.Title
	case err.Err != nil:
		return err.Err.Error()
	}
	return GenericMoveFailure
}

func (err *PersistError) Unwrap() error {
	return err.Err
}

// FailureMessage picks the best user-facing text for a failed move: a
// persistence title, then the error text, then GenericMoveFailure.
func FailureMessage(err error) string {
	var persistErr *PersistError
	if errors.As(err, &persistErr) && persistErr.Title != "" {
		return persistErr.Title
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return GenericMoveFailure
}

type MoveFailure struct {
	Command *MoveCommand
	Message string
	Err     error
}

type Notifier interface {
	MoveFailed(ctx context.Context, failure MoveFailure)
}

type NotifierFunc func(ctx context.Context, failure MoveFailure)

func (fn NotifierFunc) MoveFailed(ctx context.Context, failure MoveFailure) {
	fn(ctx, failure)
}

// MoveCommand tracks one move from its optimistic application until
// persistence resolves. Request holds the indexes as actually applied.
type MoveCommand struct {
	Request      MoveRequest
	PreviousDate time.Time
	NewDate      time.Time

	generation uint64
	done       chan struct{}

	mu      sync.Mutex
	state   MoveState
	err     error
	message string
}

func newMoveCommand(request MoveRequest, previousDate, newDate time.Time, generation uint64) *MoveCommand {
	return &MoveCommand{
		Request:      request,
		PreviousDate: previousDate,
		NewDate:      newDate,
		generation:   generation,
		done:         make(chan struct{}),
		state:        MoveStateOptimisticApplied,
	}
}

// Done is closed once the move is confirmed, rolled back or found to be a
// no-op.
func (command *MoveCommand) Done() <-chan struct{} {
	return command.done
}

func (command *MoveCommand) State() MoveState {
	command.mu.Lock()
	defer command.mu.Unlock()
	return command.state
}

func (command *MoveCommand) Err() error {
	command.mu.Lock()
	defer command.mu.Unlock()
	return command.err
}

// Message is the user-facing failure text of a rolled back move.
func (command *MoveCommand) Message() string {
	command.mu.Lock()
	defer command.mu.Unlock()
	return command.message
}

// Inverse is the move that puts the plan back where it came from.
func (command *MoveCommand) Inverse() MoveRequest {
	return MoveRequest{
		SourceDay:   command.Request.DestDay,
		SourceIndex: command.Request.DestIndex,
		DestDay:     command.Request.SourceDay,
		DestIndex:   command.Request.SourceIndex,
		PlanID:      command.Request.PlanID,
	}
}

func (command *MoveCommand) setState(state MoveState) {
	command.mu.Lock()
	defer command.mu.Unlock()
	command.state = state
}

func (command *MoveCommand) resolve(state MoveState, err error, message string) {
	command.mu.Lock()
	command.state = state
	command.err = err
	command.message = message
	command.mu.Unlock()
	close(command.done)
}

// MoveController applies drag moves to a board and reconciles them with the
// persistence layer. A plan can have at most one unresolved move.
type MoveController struct {
	board     *Board
	persister Persister
	notifier  Notifier
	timeout   time.Duration

	mu        sync.Mutex
	inFlight  map[string]*MoveCommand
	confirmed uint64
}

// NewMoveController wires a controller to board. A zero timeout leaves
// deadlines to the persister; notifier may be nil.
func NewMoveController(board *Board, persister Persister, notifier Notifier, timeout time.Duration) *MoveController {
	return &MoveController{
		board:     board,
		persister: persister,
		notifier:  notifier,
		timeout:   timeout,
		inFlight:  make(map[string]*MoveCommand),
	}
}

func (controller *MoveController) Board() *Board {
	return controller.board
}

// InFlight reports whether planID has an unresolved move.
func (controller *MoveController) InFlight(planID string) bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	_, ok := controller.inFlight[planID]
	return ok
}

// Pending counts the unresolved moves.
func (controller *MoveController) Pending() int {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return len(controller.inFlight)
}

// Confirmed counts the moves persisted so far. Pass it to Reset.
func (controller *MoveController) Confirmed() uint64 {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.confirmed
}

// Reset replaces the board's plans and reference index. Unresolved moves keep
// their optimistic day. It changes nothing and returns false when a move was
// confirmed after confirmed was read, as plans may predate that write.
func (controller *MoveController) Reset(plans []models.Plan, index *ReferenceIndex, referenceVersion uint64, confirmed uint64) bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	if controller.confirmed != confirmed {
		return false
	}
	controller.board.reset(plans, index, referenceVersion, controller.pendingLocked())
	return true
}

// Move applies request to the board before returning and persists the new
// date in the background. Wait on the command's Done channel for the outcome.
// Cancelling ctx does not cancel the write.
func (controller *MoveController) Move(ctx context.Context, request MoveRequest) (*MoveCommand, error) {
	if request.IsNoOp() {
		command := &MoveCommand{Request: request, done: make(chan struct{})}
		command.resolve(MoveStateNoOp, nil, "")
		return command, nil
	}

	if request.PlanID == "" {
		return nil, ErrStaleMove
	}

	controller.mu.Lock()
	if _, busy := controller.inFlight[request.PlanID]; busy {
		controller.mu.Unlock()
		return nil, ErrMoveInFlight
	}
	command, err := controller.board.applyMove(request)
	if err != nil {
		controller.mu.Unlock()
		return nil, err
	}
	controller.inFlight[request.PlanID] = command
	controller.mu.Unlock()

	command.setState(MoveStatePersisting)
	go controller.persist(context.WithoutCancel(ctx), command)
	return command, nil
}

func (controller *MoveController) persist(ctx context.Context, command *MoveCommand) {
	updateCtx := ctx
	if controller.timeout > 0 {
		var cancel context.CancelFunc
		updateCtx, cancel = context.WithTimeout(ctx, controller.timeout)
		defer cancel()
	}

	newDate := command.NewDate
	err := controller.persister.Update(updateCtx, command.Request.PlanID, models.PlanPatch{Date: &newDate})

	controller.mu.Lock()
	if controller.inFlight[command.Request.PlanID] == command {
		delete(controller.inFlight, command.Request.PlanID)
	}
	if err == nil {
		controller.board.confirmMove(command, controller.pendingLocked())
		controller.confirmed++
	} else {
		controller.board.rebuild(controller.pendingLocked())
	}
	controller.mu.Unlock()

	if err == nil {
		command.resolve(MoveStateConfirmed, nil, "")
		return
	}

	message := FailureMessage(err)
	if controller.notifier != nil {
		controller.notifier.MoveFailed(ctx, MoveFailure{Command: command, Message: message, Err: err})
	}
	command.resolve(MoveStateRolledBack, err, message)
}

func (controller *MoveController) pendingLocked() map[string]time.Time {
	if len(controller.inFlight) == 0 {
		return nil
	}
	pending := make(map[string]time.Time, len(controller.inFlight))
	for planID, command := range controller.inFlight {
		pending[planID] = command.NewDate
	}
	return pending
}
