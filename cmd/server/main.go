package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hperssn/divdrill/internal/config"
	"github.com/hperssn/divdrill/internal/gallery"
	httpapi "github.com/hperssn/divdrill/internal/http"
	"github.com/hperssn/divdrill/internal/platform/logger"
	"github.com/hperssn/divdrill/internal/runner"
	"github.com/hperssn/divdrill/internal/storage"
)

func main() {
	configFile := flag.String("config", os.Getenv("DIVDRILL_CONFIG"), "path to config file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	zap.ReplaceGlobals(log)

	ranges, err := cfg.Generator.Ranges()
	if err != nil {
		return err
	}

	repo, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	picker := loadGallery(ctx, cfg.Gallery, log)

	drills := runner.NewDrillManager(runner.Options{
		Tick:        cfg.Drill.Tick,
		SolveDelay:  cfg.Drill.SolveDelay,
		WrongFlash:  cfg.Drill.WrongFlash,
		IdleTimeout: cfg.Drill.IdleTimeout,
		Ranges:      ranges,
		Repo:        repo,
		Gallery:     picker,
		Logger:      log,
	})
	defer drills.Close()

	h := httpapi.NewHandler(drills, repo, httpapi.Options{
		Ranges:      ranges,
		TimeLimit:   cfg.Drill.TimeLimitSec,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      log,
	})

	r := httpapi.NewRouter(h)
	r.Get("/", serveIndex)
	fs := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fs))

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// loadGallery fetches the reward pictures once at startup. Drills run
// without pictures when the listing fails.
func loadGallery(ctx context.Context, cfg config.GalleryConfig, log *zap.Logger) *gallery.Picker {
	picker := gallery.NewPicker(nil)
	if !cfg.Enabled() {
		return picker
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	images, err := gallery.NewClient(cfg.APIBase, cfg.Repo, cfg.Folder).List(ctx)
	if err != nil {
		log.Warn("failed to load gallery", zap.String("repo", cfg.Repo), zap.Error(err))
		return picker
	}

	picker.Set(images)
	log.Info("gallery loaded", zap.String("repo", cfg.Repo), zap.Int("images", picker.Len()))
	return picker
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, "./static/index.html")
}
