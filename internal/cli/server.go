package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizzer-session-service/internal/app"
	"quizzer-session-service/internal/catalog"
	"quizzer-session-service/internal/config"
	"quizzer-session-service/internal/domain"
	"quizzer-session-service/internal/infra/memory"
	pgstore "quizzer-session-service/internal/infra/postgres"
	redisinfra "quizzer-session-service/internal/infra/redis"
	"quizzer-session-service/internal/logger"
	transport "quizzer-session-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	// Catalog selection: a remote catalog wins, then Postgres, then the
	// built-in samples so `start` works with no config at all. Local
	// backends get a TTL cache in front (Redis when configured).
	var quizCatalog app.Catalog
	var quizWriter app.CatalogWriter
	switch {
	case cfg.Catalog.BaseURL != "":
		client := catalog.NewClient(cfg.Catalog.BaseURL, config.TTLDuration(cfg.Catalog.Timeout, 10*time.Second))
		quizCatalog = client
		quizWriter = client
		log.Info("using remote catalog", zap.String("baseURL", cfg.Catalog.BaseURL))
	case pool != nil:
		store := pgstore.NewQuizStore(pool)
		quizCatalog = cachedCatalog(redisClient, store, quizTTL)
		quizWriter = store
		log.Info("using postgres catalog")
	default:
		static := memory.NewStaticLoader(sampleQuizzes())
		quizCatalog = cachedCatalog(redisClient, static, quizTTL)
		quizWriter = static
		log.Info("using built-in sample catalog")
	}

	service := app.NewSessionService(quizCatalog, log)
	apiHandler := transport.NewAPIHandler(quizCatalog, quizWriter, log)
	wsHandler := transport.NewWSHandler(service, log)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	apiHandler.Register(r)
	r.Get("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func cachedCatalog(redisClient *redis.Client, loader memory.Loader, ttl time.Duration) app.Catalog {
	if redisClient != nil {
		return redisinfra.NewCatalog(redisClient, loader, ttl)
	}
	return memory.NewCatalog(loader, ttl)
}

// sampleQuizzes seeds the standalone catalog so the service is usable
// without Postgres or a remote backend.
func sampleQuizzes() map[string]domain.QuizDetail {
	return map[string]domain.QuizDetail{
		"quiz-arithmetic": {
			ID:               "quiz-arithmetic",
			Title:            "Quick Arithmetic",
			Description:      "Two easy sums against the clock.",
			TimeLimitMinutes: 1,
			Questions: []domain.Question{
				{
					Text:          "What is 2 + 2?",
					Choices:       []string{"3", "4", "5", "22"},
					CorrectAnswer: "4",
				},
				{
					Text:          "What is 7 * 6?",
					Choices:       []string{"42", "36", "48", "76"},
					CorrectAnswer: "42",
				},
			},
		},
		"quiz-capitals": {
			ID:               "quiz-capitals",
			Title:            "World Capitals",
			Description:      "Know your capitals.",
			TimeLimitMinutes: 2,
			Questions: []domain.Question{
				{
					Text:          "What is the capital of France?",
					Choices:       []string{"Lyon", "Marseille", "Paris", "Nice"},
					CorrectAnswer: "Paris",
				},
				{
					Text:          "What is the capital of Japan?",
					Choices:       []string{"Osaka", "Kyoto", "Nagoya", "Tokyo"},
					CorrectAnswer: "Tokyo",
				},
				{
					Text:          "What is the capital of Australia?",
					Choices:       []string{"Sydney", "Canberra", "Melbourne", "Perth"},
					CorrectAnswer: "Canberra",
				},
			},
		},
	}
}
