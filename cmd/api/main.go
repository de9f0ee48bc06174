package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-backend/internal/adapters/auth/jwtauth"
	"crm-backend/internal/adapters/realtime/webhook"
	"crm-backend/internal/adapters/realtime/ws"
	"crm-backend/internal/config"
	"crm-backend/internal/platform/logger"
	"crm-backend/internal/ports/auth"
	"crm-backend/internal/ports/realtime"
	"crm-backend/internal/router"
)

// @title CRM Backend API
// @version 1.0
// @description API multi-tenant de CRM con historial de cambios por campo.
// @BasePath /
func main() {
	cfg := config.Load()
	log := logger.NewFromEnv()

	var verifier auth.AuthVerifier
	if cfg.DevMode {
		log.Warn("dev mode: JWT deshabilitado, auth por X-Debug-User-ID", nil)
	} else {
		verifier = jwtauth.NewVerifier(cfg.JWTSecret)
	}

	hub := ws.NewHub(log)
	pubs := realtime.Fanout{hub}
	if cfg.WebhookURL != "" {
		pubs = append(pubs, webhook.New(cfg.WebhookURL, log))
	}

	app := router.New(router.Options{
		Cfg:          cfg,
		Log:          log,
		AuthVerifier: verifier,
		Publisher:    pubs,
		Hub:          hub,
	})

	// recordatorios de tareas: barrido horario sobre las que vencen en 24h
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n, err := app.Tasks.SweepDue(sweepCtx, 24*time.Hour); err != nil {
					log.Error("task due sweep failed", map[string]any{"err": err.Error()})
				} else if n > 0 {
					log.Info("task due reminders sent", map[string]any{"count": n})
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down", nil)
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", map[string]any{"err": err.Error()})
	}
}
