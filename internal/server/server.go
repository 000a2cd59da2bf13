package server

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bensuskins/harvest-planner/internal/config"
	"github.com/bensuskins/harvest-planner/internal/handlers"
	"github.com/bensuskins/harvest-planner/internal/planner"
	"github.com/bensuskins/harvest-planner/internal/repository"
	"github.com/bensuskins/harvest-planner/internal/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	router *chi.Mux
	config config.Config
}

func New(database *sql.DB, cfg config.Config) (*Server, error) {
	planRepo := repository.NewPlanRepository(database)
	referenceRepo := repository.NewReferenceRepository(database)

	colors := planner.NewColorRegistry(cfg.Palette)
	references := services.NewReferenceCache(referenceRepo, planner.IndexOptions{
		DefaultSource:     cfg.CommoditySource,
		IncludeAllSources: cfg.IncludeAllCommoditySources,
	}, colors, cfg.ReferenceTTL)

	boardService, err := services.NewBoardService(
		planRepo,
		references,
		colors,
		services.NewPlanPersister(planRepo),
		services.LogNotifier(),
		services.BoardOptions{
			Calendar:       planner.NewCalendar(cfg.Location),
			FirstDay:       cfg.WeekStart,
			PersistTimeout: cfg.PersistTimeout,
			CacheSize:      cfg.BoardCacheSize,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating board service: %w", err)
	}

	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Compress(5))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	Routes(router, planRepo, referenceRepo, references, boardService, colors)

	server := &Server{
		router: router,
		config: cfg,
	}

	return server, nil
}

// Routes mounts the board and API handlers on router.
func Routes(
	router chi.Router,
	planRepo repository.PlanRepository,
	referenceRepo repository.ReferenceRepository,
	references *services.ReferenceCache,
	boardService *services.BoardService,
	colors *planner.ColorRegistry,
) {
	boardHandler := handlers.NewBoardHandler(boardService)
	apiHandler := handlers.NewAPIHandler(planRepo, boardService)
	referenceHandler := handlers.NewReferenceHandler(referenceRepo, references, boardService, colors)

	router.Get("/board", boardHandler.Board)
	router.Post("/board/moves", boardHandler.Move)

	router.Route("/api", func(r chi.Router) {
		r.Get("/plans", apiHandler.ListPlans)
		r.Post("/plans", apiHandler.CreatePlan)
		r.Get("/plans/{id}", apiHandler.GetPlan)
		r.Patch("/plans/{id}", apiHandler.UpdatePlan)
		r.Delete("/plans/{id}", apiHandler.DeletePlan)

		r.Post("/reference/import", referenceHandler.Import)
		r.Get("/colors", referenceHandler.Colors)
	})
}

func (server *Server) Handler() http.Handler {
	return server.router
}

func (server *Server) Start() error {
	address := ":" + server.config.Port
	slog.Info("starting server", "address", address)
	return http.ListenAndServe(address, server.router)
}
