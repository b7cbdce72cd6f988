package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"interview-quiz-service/internal/app"
	"interview-quiz-service/internal/config"
	"interview-quiz-service/internal/domain"
	"interview-quiz-service/internal/infra/memory"
	pgstore "interview-quiz-service/internal/infra/postgres"
	redisstore "interview-quiz-service/internal/infra/redis"
	"interview-quiz-service/internal/infra/sqlite"
	"interview-quiz-service/internal/scheduler"
	transport "interview-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var store app.Store
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewStore(pool)
	} else {
		log.Printf("postgres not configured, serving the demo question bank from memory")
		store = demoStore()
	}

	cacheTTL := cfg.Quiz.CacheTTLDuration()
	if redisClient != nil {
		store = redisstore.NewQuestionCache(redisClient, store, cacheTTL)
	} else {
		store = memory.NewQuestionCache(store, cacheTTL)
	}

	var (
		snapshots app.SnapshotStore
		pruner    scheduler.Pruner
	)
	snapshotTTL := cfg.Quiz.SnapshotTTLDuration()
	switch {
	case redisClient != nil:
		snapshots = redisstore.NewSnapshotStore(redisClient, snapshotTTL)
	case cfg.SQLite.DSN != "":
		local, err := sqlite.Open(ctx, cfg.SQLite.DSN, snapshotTTL)
		if err != nil {
			return err
		}
		defer local.Close()
		snapshots = local
		pruner = local
	default:
		snapshots = memory.NewSnapshotStore()
	}

	var (
		sessions  app.SessionRepository
		heartbeat scheduler.Heartbeat
	)
	if redisClient != nil {
		shared := redisstore.NewSessionStore(redisClient, redisTTL)
		sessions = shared
		heartbeat = shared
	} else {
		sessions = memory.NewSessionStore()
	}

	settings := cfg.Quiz.Settings()
	service := app.NewQuizService(store, snapshots, sessions, settings)

	jobs := scheduler.New(service, pruner, cfg.Scheduler.Options())
	if heartbeat != nil {
		jobs.WithHeartbeat(heartbeat)
	}
	if err := jobs.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	wsHandler := transport.NewWSHandler(service, settings.ProbeThreshold)
	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, wsHandler, cfg.Server.AllowedOrigins),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	jobs.Stop()
	service.Close(shutdownCtx)
	return err
}

// demoStore seeds a small question bank so the service runs without Postgres.
func demoStore() *memory.Store {
	store := memory.NewStore()
	timer := 30
	store.AddCriteria(domain.Criteria{ID: "demo", Name: "Demo interview", PassThreshold: 60, TimerMinutes: &timer, Active: true})
	store.SetSiteSettings(domain.SiteSettings{ScreenshotBlocking: true})
	store.AddAttempt(domain.Attempt{ID: "demo-attempt", CandidateID: "demo-candidate", CriteriaID: "demo", Status: domain.AttemptInProgress, StartedAt: time.Now()})

	general := []struct{ sub, text, correct string }{
		{"computer_science", "Which data structure gives O(1) average lookup by key?", "Hash map"},
		{"testing", "Which test isolates a single unit from its collaborators?", "Unit test"},
		{"logical_reasoning", "What comes next: 2, 4, 8, 16, ...?", "32"},
		{"miscellaneous", "Which protocol does HTTPS layer over TCP?", "TLS"},
		{"grammar", "Choose the correct form: She ___ to work every day.", "goes"},
	}
	distractors := map[string][]string{
		"Hash map":  {"Linked list", "Binary heap", "Stack"},
		"Unit test": {"End-to-end test", "Load test", "Smoke test"},
		"32":        {"24", "30", "64"},
		"TLS":       {"FTP", "SMTP", "SSH"},
		"goes":      {"go", "going", "gone"},
	}
	for i, g := range general {
		store.AddQuestions(domain.Question{
			ID:            fmt.Sprintf("demo-g%d", i+1),
			CriteriaID:    "demo",
			Section:       domain.SectionGeneral,
			Subsection:    g.sub,
			Text:          g.text,
			Options:       append([]string{g.correct}, distractors[g.correct]...),
			CorrectAnswer: g.correct,
			Active:        true,
		})
	}

	electives := map[string][][2]string{
		"java":   {{"Which keyword prevents a class from being subclassed?", "final"}, {"Which collection keeps insertion order?", "LinkedHashMap"}},
		"python": {{"Which keyword defines a generator?", "yield"}, {"Which type is immutable?", "tuple"}},
	}
	wrong := []string{"static", "abstract", "volatile"}
	for subject, qs := range electives {
		for i, q := range qs {
			store.AddQuestions(domain.Question{
				ID:            fmt.Sprintf("demo-%s%d", subject, i+1),
				CriteriaID:    "demo",
				Section:       domain.SectionElective,
				Subsection:    subject,
				Text:          q[0],
				Options:       append([]string{q[1]}, wrong...),
				CorrectAnswer: q[1],
				Active:        true,
			})
		}
	}
	return store
}
