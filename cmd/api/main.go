package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/engdocs/docregister-backend/config"
	"github.com/engdocs/docregister-backend/internal/bootstrap"
	"github.com/engdocs/docregister-backend/internal/documents/cronjob"
	"github.com/engdocs/docregister-backend/internal/documents/service"
	"golang.org/x/sync/errgroup"
)

const serviceName = "docregister"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logFile, logWriter := config.InitLogging(cfg.App.LogFile)
	if logFile != nil {
		defer logFile.Close()
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer backends.Close()

	fs, err := bootstrap.OpenFiles(ctx, &cfg.Files)
	if err != nil {
		log.Fatalf("files: %v", err)
	}

	engine, err := bootstrap.NewEngine(&cfg.Approval)
	if err != nil {
		log.Fatalf("approval: %v", err)
	}

	svc := service.NewDocumentService(backends.Store, fs, engine)

	if spec := cfg.Jobs.OverdueReportCron; spec != "" {
		sched := cronjob.NewScheduler(svc, spec)
		if err := sched.Start(); err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		defer sched.Stop()
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		StoreBackend:   cfg.App.StoreBackend,
		Backends:       backends,
		Service:        svc,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		LogWriter:      logWriter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[info] %s listening on :%s (store=%s files=%s mode=%s)",
			serviceName, cfg.Server.Port, cfg.App.StoreBackend, cfg.Files.Backend, engine.Mode())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("[info] shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("[error] server: %v", err)
	}
}
