package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	api "github.com/mind-engage/mindengage-examsim/internal/api/http"
	auth "github.com/mind-engage/mindengage-examsim/internal/auth/middleware"
	"github.com/mind-engage/mindengage-examsim/internal/bank"
	"github.com/mind-engage/mindengage-examsim/internal/bookmarks"
	"github.com/mind-engage/mindengage-examsim/internal/config"
	"github.com/mind-engage/mindengage-examsim/internal/db"
	"github.com/mind-engage/mindengage-examsim/internal/exam"
	"github.com/mind-engage/mindengage-examsim/internal/logging"
	"github.com/mind-engage/mindengage-examsim/internal/metrics"
	"github.com/mind-engage/mindengage-examsim/internal/session"
	"github.com/mind-engage/mindengage-examsim/internal/storage"
	syncx "github.com/mind-engage/mindengage-examsim/internal/sync"
)

func main() {
	cfg := config.FromEnv()

	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// --- DB ---
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer dbh.Close()

	// --- Question bank ---
	blobs, err := storage.Open(ctx, storage.Options{
		Driver:         cfg.BlobDriver,
		BasePath:       cfg.BlobBasePath,
		MinioEndpoint:  cfg.MinioEndpoint,
		MinioAccessKey: cfg.MinioAccessKey,
		MinioSecretKey: cfg.MinioSecretKey,
		MinioBucket:    cfg.MinioBucket,
		MinioUseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatal("blob store", zap.Error(err))
	}
	manifest, err := bank.LoadManifest(cfg.BankManifest)
	if err != nil {
		log.Fatal("bank manifest", zap.Error(err))
	}
	lib := bank.NewLibrary(ctx, blobs, manifest, log.Named("bank"))
	if lib.Current().Total() == 0 {
		log.Warn("question bank is empty; upload collections via PUT /bank/collections/{file}")
	}

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)
	api.ObservePools(lib.Current())

	// --- Services ---
	gen := exam.NewGenerator(lib, exam.WithLogger(log.Named("exam")))
	sessions := session.NewService(session.NewSQLStore(dbh), gen,
		session.WithLogger(log.Named("session")),
		session.WithEvents(syncx.NewEventRepo(dbh, "")),
		session.WithTimeLimit(cfg.ExamTimeLimit),
	)
	folders := bookmarks.NewService(bookmarks.NewSQLStore(dbh), lib)

	r := api.NewRouter(api.Deps{
		Log:       log.Named("http"),
		DB:        dbh,
		Auth:      auth.NewAuthService(cfg.AuthSecret),
		Admin:     auth.Admin{User: cfg.AdminUser, PassHash: cfg.AdminPassHash},
		Library:   lib,
		Blobs:     blobs,
		Sessions:  sessions,
		Folders:   folders,
		Limiter:   api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Gatherer:  reg,
		Origins:   cfg.CORSOrigins(),
		LocalAuth: cfg.EnableLocalAuth,
		GuestAuth: cfg.EnableGuestAuth,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("listening",
			zap.String("addr", cfg.HTTPAddr), zap.String("mode", string(cfg.Mode)),
			zap.String("db", cfg.DBDriver), zap.Int("questions", lib.Current().Total()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}
