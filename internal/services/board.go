package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bensuskins/harvest-planner/internal/models"
	"github.com/bensuskins/harvest-planner/internal/planner"
	"github.com/bensuskins/harvest-planner/internal/repository"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultBoardCacheSize = 16
	maxReloadAttempts     = 3
)

type BoardOptions struct {
	Calendar       planner.Calendar
	FirstDay       time.Weekday
	PersistTimeout time.Duration
	CacheSize      int
}

type CardView struct {
	Plan      models.Plan  `json:"plan"`
	Card      planner.Card `json:"card"`
	Color     string       `json:"color"`
	TextColor string       `json:"text_color"`
}

type DayView struct {
	Day     string     `json:"day"`
	Weekday string     `json:"weekday"`
	Cards   []CardView `json:"cards"`
}

type BoardView struct {
	WeekStart string    `json:"week_start"`
	Days      []DayView `json:"days"`
	Pending   bool      `json:"pending,omitempty"`
}

// BoardService keeps one move controller per displayed week. Weeks fall out
// of the cache least recently used first and are rebuilt from storage on the
// next request. A week with unresolved moves is set aside on eviction so its
// controller, and the moves it tracks, survive.
type BoardService struct {
	planRepo   repository.PlanRepository
	references *ReferenceCache
	colors     *planner.ColorRegistry
	persister  planner.Persister
	notifier   planner.Notifier
	options    BoardOptions

	mu         sync.Mutex
	generation uint64
	boards     *lru.Cache[string, *weekBoard]
	pinned     map[string]*weekBoard
}

// weekBoard is a cached week. generation is the service generation its plans
// were loaded at.
type weekBoard struct {
	controller *planner.MoveController
	generation uint64
}

func (week *weekBoard) current(generation, referenceVersion uint64) bool {
	return week.generation >= generation && week.controller.Board().ReferenceVersion() >= referenceVersion
}

func NewBoardService(
	planRepo repository.PlanRepository,
	references *ReferenceCache,
	colors *planner.ColorRegistry,
	persister planner.Persister,
	notifier planner.Notifier,
	options BoardOptions,
) (*BoardService, error) {
	size := options.CacheSize
	if size <= 0 {
		size = defaultBoardCacheSize
	}

	service := &BoardService{
		planRepo:   planRepo,
		references: references,
		colors:     colors,
		persister:  persister,
		notifier:   notifier,
		options:    options,
		pinned:     make(map[string]*weekBoard),
	}

	boards, err := lru.NewWithEvict[string, *weekBoard](size, service.evicted)
	if err != nil {
		return nil, fmt.Errorf("creating board cache: %w", err)
	}
	service.boards = boards
	return service, nil
}

func (service *BoardService) Calendar() planner.Calendar {
	return service.options.Calendar
}

// WeekStart returns the first day of the week containing dayKey, or of the
// current week when dayKey is empty.
func (service *BoardService) WeekStart(dayKey string) (time.Time, error) {
	calendar := service.options.Calendar
	day := time.Now()
	if dayKey != "" {
		parsed, err := calendar.ParseDayKey(dayKey)
		if err != nil {
			return time.Time{}, err
		}
		day = parsed
	}
	return calendar.WeekStart(day, service.options.FirstDay), nil
}

// Controller returns the cached controller for the week starting at
// weekStart. A week invalidated since it was loaded, or built against older
// reference data, has its plans reloaded into the same controller.
func (service *BoardService) Controller(ctx context.Context, weekStart time.Time) (*planner.MoveController, error) {
	snapshot, err := service.references.Get(ctx)
	if err != nil {
		return nil, err
	}

	key := service.options.Calendar.DayKey(weekStart)
	for attempt := 1; ; attempt++ {
		service.mu.Lock()
		week, cached := service.lookupLocked(key)
		generation := service.generation
		if cached && week.current(generation, snapshot.Version) {
			service.mu.Unlock()
			return week.controller, nil
		}
		var confirmed uint64
		if cached {
			confirmed = week.controller.Confirmed()
		}
		service.mu.Unlock()

		plans, err := service.loadPlans(ctx, weekStart)
		if err != nil {
			return nil, err
		}

		controller, ok := service.store(key, weekStart, plans, snapshot, generation, confirmed)
		if ok || attempt >= maxReloadAttempts {
			return controller, nil
		}
	}
}

// store caches freshly loaded plans for key. It reports false when a move was
// confirmed while the plans were loading, leaving the cached week as it was.
func (service *BoardService) store(
	key string,
	weekStart time.Time,
	plans []models.Plan,
	snapshot ReferenceSnapshot,
	generation uint64,
	confirmed uint64,
) (*planner.MoveController, bool) {
	service.mu.Lock()
	defer service.mu.Unlock()

	week, cached := service.lookupLocked(key)
	if !cached {
		calendar := service.options.Calendar
		board := planner.NewBoard(calendar, calendar.WeekDays(weekStart), plans, snapshot.Index, snapshot.Version)
		controller := planner.NewMoveController(board, service.persister, service.notifier, service.options.PersistTimeout)
		service.boards.Add(key, &weekBoard{controller: controller, generation: generation})
		return controller, true
	}
	if week.current(generation, snapshot.Version) {
		return week.controller, true
	}
	if !week.controller.Reset(plans, snapshot.Index, snapshot.Version, confirmed) {
		return week.controller, false
	}
	week.generation = generation
	return week.controller, true
}

// lookupLocked finds key in the cache or among the weeks set aside, returning
// the latter to the cache.
func (service *BoardService) lookupLocked(key string) (*weekBoard, bool) {
	for pinnedKey, week := range service.pinned {
		if week.controller.Pending() == 0 {
			delete(service.pinned, pinnedKey)
		}
	}

	if week, ok := service.boards.Get(key); ok {
		return week, true
	}
	if week, ok := service.pinned[key]; ok {
		delete(service.pinned, key)
		service.boards.Add(key, week)
		return week, true
	}
	return nil, false
}

// evicted runs from inside boards calls, which are made with service.mu held.
func (service *BoardService) evicted(key string, week *weekBoard) {
	if week.controller.Pending() > 0 {
		service.pinned[key] = week
	}
}

func (service *BoardService) Board(ctx context.Context, weekStart time.Time) (BoardView, error) {
	controller, err := service.Controller(ctx, weekStart)
	if err != nil {
		return BoardView{}, err
	}
	return service.View(controller.Board()), nil
}

// Move applies request to the week's board. The returned command resolves
// once persistence does.
func (service *BoardService) Move(ctx context.Context, weekStart time.Time, request planner.MoveRequest) (*planner.MoveCommand, *planner.Board, error) {
	controller, err := service.Controller(ctx, weekStart)
	if err != nil {
		return nil, nil, err
	}
	command, err := controller.Move(ctx, request)
	if err != nil {
		return nil, controller.Board(), err
	}
	return command, controller.Board(), nil
}

// Invalidate marks every cached week stale so its next request reloads plans
// from storage. Controllers and their unresolved moves are kept.
func (service *BoardService) Invalidate() {
	service.mu.Lock()
	defer service.mu.Unlock()
	service.generation++
}

// View projects the board's current buckets, optimistic moves included.
func (service *BoardService) View(board *planner.Board) BoardView {
	calendar := board.Calendar()
	buckets := board.Snapshot()
	days := board.Days()

	view := BoardView{Days: make([]DayView, 0, len(days))}
	if len(days) > 0 {
		view.WeekStart = days[0]
	}

	for _, key := range days {
		dayView := DayView{Day: key, Cards: make([]CardView, 0, len(buckets[key]))}
		if day, err := calendar.ParseDayKey(key); err == nil {
			dayView.Weekday = day.Weekday().String()
		}
		for _, entry := range buckets[key] {
			color := planner.NeutralColor
			if service.colors != nil {
				color = service.colors.ColorFor(entry.Card.CommodityName)
			}
			dayView.Cards = append(dayView.Cards, CardView{
				Plan:      entry.Plan,
				Card:      entry.Card,
				Color:     color,
				TextColor: planner.TextColorFor(color),
			})
		}
		view.Days = append(view.Days, dayView)
	}
	return view
}

func (service *BoardService) loadPlans(ctx context.Context, weekStart time.Time) ([]models.Plan, error) {
	plans, err := service.planRepo.FindAll(ctx, repository.PlanFilter{
		From: weekStart,
		To:   weekStart.AddDate(0, 0, 7),
	})
	if err != nil {
		return nil, fmt.Errorf("loading week plans: %w", err)
	}
	return plans, nil
}
