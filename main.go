package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/camden-git/checkinkiosk/config"
	"github.com/camden-git/checkinkiosk/handlers"
	"github.com/camden-git/checkinkiosk/media"
	"github.com/camden-git/checkinkiosk/nfc"
	"github.com/camden-git/checkinkiosk/realtime"
	"github.com/camden-git/checkinkiosk/repository"
	"github.com/camden-git/checkinkiosk/services"
	"github.com/camden-git/checkinkiosk/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	config.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	photoStore, err := media.NewLocalStorage(cfg.DataDir, cfg.PhotoSubDir)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize photo store: %v", err)
	}
	photoProcessor := media.NewProcessor(photoStore, cfg.PhotoMaxSize)
	participantRepo := repository.NewCSVParticipantRepository(cfg.DBPath)

	log.Printf("Using participant file: %s", cfg.DBPath)
	log.Printf("Storing photos in: %s", cfg.PhotoPath)
	log.Printf("Photo max size (longest side): %dpx", cfg.PhotoMaxSize)

	hub := realtime.NewHub()
	go hub.Run(ctx)

	server := &handlers.Server{
		Cfg:          cfg,
		Participants: services.NewParticipantService(participantRepo, photoStore, photoProcessor, hub),
		Analytics:    services.NewAnalyticsService(participantRepo, photoStore),
		Exports:      services.NewExportService(participantRepo, photoStore),
		Photos:       photoStore,
		Hub:          hub,
	}

	stopTapPoller := func() {}
	if cfg.NFCEnabled {
		stopTapPoller = startTapPoller(ctx, cfg, hub)
	} else {
		log.Printf("NFC polling disabled")
	}

	serverAddr := ":" + cfg.Port
	listener, err := net.Listen("tcp", serverAddr)
	if err != nil {
		log.Fatalf("FATAL: Failed to listen on %s: %v", serverAddr, err)
	}
	fmt.Printf("Server starting on http://localhost:%s\n", cfg.Port)
	log.Printf("Server listening on %s", serverAddr)
	httpServer := &http.Server{
		Handler:      handlers.NewRouter(server),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := serveUntilDone(ctx, httpServer, listener, 10*time.Second); err != nil {
		log.Fatalf("FATAL: Server error: %v", err)
	}
	stopTapPoller()
	log.Printf("Server stopped")
}

// serveUntilDone serves on ln until ctx is cancelled and returns only after
// Shutdown has drained in-flight requests or grace has expired.
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Printf("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// startTapPoller broadcasts nfc_tapped for every new tag and returns a func
// that stops the poller and releases the reader. A missing reader only
// disables the feature; registration still works with a typed UID.
func startTapPoller(ctx context.Context, cfg config.Config, hub *realtime.Hub) func() {
	reader, err := nfc.OpenPCSC(cfg.NFCReaderName)
	if err != nil {
		log.Warnf("NFC reader unavailable, tap events disabled: %v", err)
		return func() {}
	}
	log.Printf("Using NFC reader: %s", reader.Name())

	poller := workers.NewTagPoller(reader, func(ctx context.Context, card nfc.Card, uid string) error {
		hub.Broadcast(realtime.NewTapEvent(uid))
		return nil
	}, cfg.PollInterval, cfg.PollErrorDelay)
	poller.Start(ctx)

	return func() {
		poller.Stop()
		if err := reader.Close(); err != nil {
			log.Warnf("Failed to release PC/SC context: %v", err)
		}
	}
}
