package api

import (
	"log/slog"

	"github.com/genxais/pipelined/internal/orchestrator"
	"github.com/genxais/pipelined/internal/steps"
	"github.com/genxais/pipelined/internal/trigger"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	orch      *orchestrator.Orchestrator
	scheduler *trigger.Scheduler
	steps     *steps.Registry
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *trigger.Scheduler
	Steps        *steps.Registry
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	stepRegistry := cfg.Steps
	if stepRegistry == nil {
		stepRegistry = steps.DefaultRegistry()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		orch:      cfg.Orchestrator,
		scheduler: cfg.Scheduler,
		steps:     stepRegistry,
		logger:    logger,
	}
}
