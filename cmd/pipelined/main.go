package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/genxais/pipelined/internal/api"
	"github.com/genxais/pipelined/internal/domain"
	"github.com/genxais/pipelined/internal/events"
	"github.com/genxais/pipelined/internal/orchestrator"
	"github.com/genxais/pipelined/internal/recovery"
	"github.com/genxais/pipelined/internal/repo"
	"github.com/genxais/pipelined/internal/telemetry"
	"github.com/genxais/pipelined/internal/trigger"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting pipelined")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных. Без неё работаем на in-memory
	// хранилищах: записи и снимки живут до перезапуска.
	var pool *pgxpool.Pool
	var recordStore recovery.Store
	var snapshots orchestrator.SnapshotStore

	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Warn("database unavailable, using in-memory stores", "error", err)
	} else {
		defer pool.Close()
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		recordStore = repo.NewRecordRepo(pool)
		snapshots = repo.NewPipelineRepo(pool)
		logger.Info("connected to database")
	}

	// Подключаемся к RabbitMQ. Без брокера события просто не публикуются.
	var publisher *events.Publisher
	conn, err := events.NewConnection(events.DefaultURL(), logger)
	if err != nil {
		logger.Warn("message broker unavailable, events disabled", "error", err)
	} else {
		defer conn.Close()
		if err := events.SetupTopology(ctx, conn); err != nil {
			logger.Error("failed to set up topology", "error", err)
			os.Exit(1)
		}
		publisher = events.NewPublisher(conn, logger)
		logger.Info("connected to message broker")
	}

	// Диспетчер восстановления: каждая обработанная ошибка сохраняется
	// и публикуется как событие error.recorded.
	dispatcher := recovery.New(recovery.Config{
		Store:  recordStore,
		Logger: logger,
		Roots:  recovery.Roots{Workdir: os.Getenv("RECOVERY_DIR")},
		Notify: func(rec *domain.ErrorRecord) {
			publisher.PublishErrorRecorded(context.Background(), rec)
		},
	})

	maxConcurrent := 0
	if v := os.Getenv("MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			maxConcurrent = n
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		Dispatcher:    dispatcher,
		Snapshots:     snapshots,
		Publisher:     publisher,
		MaxConcurrent: maxConcurrent,
		Logger:        logger,
	})

	// Планировщик триггеров
	sched := trigger.NewScheduler(trigger.SchedulerConfig{
		Orchestrator: orch,
		Logger:       logger,
	})
	go sched.Run(ctx)

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Orchestrator: orch,
		Scheduler:    sched,
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
