package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glowdesk/notify/internal/application/delivery"
	"github.com/glowdesk/notify/internal/application/notification"
	"github.com/glowdesk/notify/internal/application/preference"
	"github.com/glowdesk/notify/internal/config"
	jwtinfra "github.com/glowdesk/notify/internal/infrastructure/jwt"
	"github.com/glowdesk/notify/internal/infrastructure/memstore"
	s3infra "github.com/glowdesk/notify/internal/infrastructure/s3"
	"github.com/glowdesk/notify/internal/infrastructure/smtp"
	"github.com/glowdesk/notify/internal/infrastructure/snapshot"
	"github.com/glowdesk/notify/internal/infrastructure/sns"
	transporthttp "github.com/glowdesk/notify/internal/transport/http"
	"github.com/glowdesk/notify/internal/transport/ws"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// In-memory stores: the system of record for a single-node deployment.
	store := memstore.NewNotificationStore()
	prefs := memstore.NewPreferenceStore()
	queue := memstore.NewDeliveryQueue(cfg.QueueCapacity, cfg.QueueMaxRetries)
	deliveryLog := memstore.NewDeliveryLog(cfg.DeliveryLogMaxEntries)

	// Optional S3 snapshot archival.
	var archiver snapshot.Archiver
	if cfg.S3BucketName != "" {
		if s3Client, err := s3infra.NewClient(cfg); err == nil {
			archiver = s3infra.NewArchiveStore(s3Client, cfg.S3BucketName, cfg.S3SnapshotKey)
		} else {
			log.Printf("WARN: S3 archival not available: %v", err)
		}
	}

	// Restore the last snapshot before serving; a missing file starts empty.
	snapshots := snapshot.New(cfg.SnapshotPath, store, prefs, deliveryLog, archiver)
	if err := snapshots.Load(); err != nil {
		log.Printf("WARN: snapshot load: %v", err)
	}

	// JWT provider (optional; graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional; graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	registry := ws.NewRegistry()
	notifSvc := notification.NewService(notification.ServiceDeps{
		Store:         store,
		Queue:         queue,
		Log:           deliveryLog,
		Preferences:   prefs,
		Pusher:        registry,
		Mailer:        mailer,
		SMSSender:     smsSender,
		MaxStored:     cfg.MaxStoredNotifications,
		RetentionDays: cfg.RetentionDays,
	})
	prefSvc := preference.NewService(prefs)
	deliverySvc := delivery.NewService(delivery.ServiceDeps{
		Log:       deliveryLog,
		Store:     store,
		Queue:     queue,
		Conns:     registry,
		Snapshots: snapshots,
	})
	gateway := ws.NewGateway(registry, notifSvc)

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		NotificationSvc: notifSvc,
		PreferenceSvc:   prefSvc,
		DeliverySvc:     deliverySvc,
		Gateway:         gateway,
		Snapshotter:     snapshots,
		JWTProvider:     jwtProvider,
	})

	// Background jobs: periodic snapshots and timer-driven retention cleanup.
	jobCtx, stopJobs := context.WithCancel(context.Background())
	go snapshots.Run(jobCtx, cfg.SnapshotInterval)
	go runCleanup(jobCtx, notifSvc, cfg.CleanupInterval)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	stopJobs()
	if err := snapshots.Save(context.Background()); err != nil {
		log.Printf("WARN: final snapshot: %v", err)
	}
	log.Println("Server stopped")
}

// runCleanup runs the retention pass on a fixed interval, decoupled from the
// request path.
func runCleanup(ctx context.Context, svc notification.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			svc.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}
