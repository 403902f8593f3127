package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
	"github.com/user/wealth-builder/config"
	"github.com/user/wealth-builder/internal/api"
	"github.com/user/wealth-builder/internal/game"
	"github.com/user/wealth-builder/internal/history"
	"github.com/user/wealth-builder/internal/metrics"
	"github.com/user/wealth-builder/internal/whatsapp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up logger
	logger := setupLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	ctx := context.Background()

	// Session snapshots
	snapshots, err := game.OpenSnapshotStore(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open snapshot storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer closeQuietly(snapshots, logger)

	// Result history
	results, err := history.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open history database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer closeQuietly(results, logger)

	var m *metrics.Metrics
	if cfg.Server.Metrics {
		m = metrics.New("wealth")
	}

	// Initialize game manager
	gameManager := game.NewGameManager(cfg)
	gameManager.SetLogger(logger)
	gameManager.SetStorage(snapshots)
	gameManager.SetHistory(results)
	gameManager.SetMetrics(m)

	loaded, err := gameManager.LoadSessions(ctx)
	if err != nil {
		logger.Error("Failed to restore game sessions", zap.Error(err))
	}
	logger.Info("Restored game sessions", zap.Int("count", loaded))

	server := api.New(gameManager, m, logger)

	// The chat transport is optional
	if cfg.WhatsApp.Enabled {
		clientManager := whatsapp.NewClientManager(gameManager, cfg, logger)
		defer clientManager.DisconnectAll()
		gameManager.SetMessageSender(clientManager)

		qrManager := whatsapp.NewQRCodeManager(clientManager, cfg, logger)
		sessionManager := whatsapp.NewSessionManager(cfg.WhatsApp.StoreDir, logger)
		mountWhatsAppRoutes(server.Router(), clientManager, qrManager, sessionManager, logger)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Start the tick loop after everything else is initialized
	gameManager.StartTickLoop()

	waitForShutdown(logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	// Stopping the loop flushes every session
	gameManager.StopTickLoop()
}

func setupLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		config.Level = lvl
	}
	logger, _ := config.Build()
	return logger
}

func closeQuietly(v any, logger *zap.Logger) {
	closer, ok := v.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("Failed to close store", zap.Error(err))
	}
}

// mountWhatsAppRoutes adds the bot pairing endpoints
func mountWhatsAppRoutes(router chi.Router, clientManager *whatsapp.ClientManager, qrManager *whatsapp.QRCodeManager, sessionManager *whatsapp.SessionManager, logger *zap.Logger) {
	// QR code generation endpoint
	router.Post("/whatsapp/qr", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PhoneNumber string `json:"phone_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		sessionID := uuid.New().String()
		code, err := qrManager.GenerateQRCode(sessionID, req.PhoneNumber)
		if err != nil {
			logger.Error("Failed to generate QR code",
				zap.String("phone_number", req.PhoneNumber),
				zap.Error(err))
			http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"qr_code":    code,
			"session_id": sessionID,
			"image":      "/whatsapp/qr/" + req.PhoneNumber + "/" + sessionID,
		})
	})

	// Serve the PNG written for a pairing attempt
	router.Get("/whatsapp/qr/{phone_number}/{session_id}", func(w http.ResponseWriter, r *http.Request) {
		path := qrManager.QRCodePath(chi.URLParam(r, "phone_number"), chi.URLParam(r, "session_id"))
		http.ServeFile(w, r, path)
	})

	// Session management endpoints
	router.Get("/whatsapp/sessions", func(w http.ResponseWriter, r *http.Request) {
		sessions, err := sessionManager.ListSessions()
		if err != nil {
			logger.Error("Failed to list sessions", zap.Error(err))
			http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sessions)
	})

	router.Delete("/whatsapp/sessions/{phone_number}/{session_id}", func(w http.ResponseWriter, r *http.Request) {
		phoneNumber := chi.URLParam(r, "phone_number")
		sessionID := chi.URLParam(r, "session_id")

		if err := clientManager.Disconnect(phoneNumber); err != nil {
			logger.Debug("No connected client for session", zap.String("phone_number", phoneNumber))
		}

		if err := sessionManager.DeleteSession(phoneNumber, sessionID); err != nil {
			logger.Error("Failed to delete session",
				zap.String("phone_number", phoneNumber),
				zap.String("session_id", sessionID),
				zap.Error(err))
			http.Error(w, "Failed to delete session", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	})
}

func waitForShutdown(logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	logger.Info("Shutting down")
}
