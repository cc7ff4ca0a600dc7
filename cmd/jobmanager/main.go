package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ahmethakanbesel/jobmanager/internal/bootstrap"
	"github.com/ahmethakanbesel/jobmanager/internal/config"
	"github.com/ahmethakanbesel/jobmanager/internal/job"
	"github.com/ahmethakanbesel/jobmanager/internal/jobtypes"
	"github.com/ahmethakanbesel/jobmanager/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	bootstrap.InitLogger(cfg.Log)

	// Root context: cancelled on SIGINT/SIGTERM.
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage backend, fixed for the process lifetime.
	backend := bootstrap.OpenStore(rootCtx, cfg)
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("close store", "error", err)
		}
	}()

	// Job types
	registry := job.NewRegistry()
	jobtypes.Register(registry, jobtypes.Delays{Job1: cfg.Job1Delay, Job2: cfg.Job2Delay})

	// Executor and service
	executor := job.NewExecutor(backend.Store, registry, job.WithMaxConcurrent(cfg.MaxConcurrent))
	jobSvc := job.NewService(backend.Store, registry, executor)

	// Jobs left behind by a previous process (persistent backends only).
	if err := jobSvc.RecoverInterrupted(rootCtx); err != nil {
		slog.Error("failed to recover interrupted jobs", "error", err)
	}

	srv := server.New(jobSvc, server.Options{
		Port:        cfg.Port,
		Database:    backend.Name,
		BaseContext: rootCtx,
	})

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()

		// Drain connections first, then wait for background jobs.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if err := executor.Shutdown(shutdownCtx); err != nil {
			slog.Warn("jobs still running at shutdown", "error", err)
		}
		return nil
	})

	slog.Info("server started", "port", cfg.Port, "database", backend.Name)
	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
