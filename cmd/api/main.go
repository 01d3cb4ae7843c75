package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/facecat/internal/api"
	"github.com/your-org/facecat/internal/api/handlers"
	"github.com/your-org/facecat/internal/api/ws"
	"github.com/your-org/facecat/internal/catalog"
	"github.com/your-org/facecat/internal/config"
	"github.com/your-org/facecat/internal/engine"
	"github.com/your-org/facecat/internal/observability"
	"github.com/your-org/facecat/internal/queue"
	"github.com/your-org/facecat/internal/storage"
	"github.com/your-org/facecat/internal/track"
	"github.com/your-org/facecat/internal/vision"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting facecat API service", "port", cfg.Server.Port)

	for _, dir := range []string{cfg.Storage.UploadsDir, cfg.Storage.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("create directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	readyChecks := map[string]func(context.Context) error{}

	// Catalog store backend
	var store catalog.Store
	switch cfg.Storage.Backend {
	case "postgres":
		pg, err := catalog.NewPostgresStore(ctx, cfg.Database)
		if err != nil {
			slog.Error("connect to postgres", "error", err)
			os.Exit(1)
		}
		store = pg
	default:
		fs, err := catalog.NewFileStore(cfg.Storage.DataFile)
		if err != nil {
			slog.Error("open catalog file store", "error", err)
			os.Exit(1)
		}
		store = fs
	}
	defer store.Close()
	readyChecks["catalog"] = store.Ping

	// Face artifact storage
	var faces catalog.FaceStore
	if cfg.MinIO.Enabled {
		ms, err := storage.NewMinIOFaceStore(cfg.MinIO)
		if err != nil {
			slog.Error("connect to minio", "error", err)
			os.Exit(1)
		}
		if err := ms.EnsureBucket(ctx); err != nil {
			slog.Warn("ensure minio bucket", "error", err)
		}
		readyChecks["minio"] = ms.Ping
		faces = ms
	} else {
		ls, err := storage.NewLocalFaceStore(cfg.Storage.FacesDir)
		if err != nil {
			slog.Error("open local face store", "error", err)
			os.Exit(1)
		}
		faces = ls
	}

	cat, err := catalog.Open(ctx, store, faces)
	if err != nil {
		slog.Error("open catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "persons", cat.Len())

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	sinks := engine.MultiSink{hub}

	// NATS is optional; an empty URL disables event publishing.
	if cfg.NATS.URL != "" {
		producer, err := queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		if err := producer.EnsureStream(ctx); err != nil {
			slog.Warn("ensure nats stream", "error", err)
		}
		readyChecks["nats"] = func(context.Context) error { return producer.Ping() }
		sinks = append(sinks, producer)
	}

	// ONNX Runtime and models
	ort.SetSharedLibraryPath(getONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("onnx runtime init", "error", err)
		os.Exit(1)
	}
	defer ort.DestroyEnvironment()

	detector, err := vision.NewDetector(
		filepath.Join(cfg.Vision.ModelsDir, "face_detector.onnx"),
		float32(cfg.Vision.DetectionThreshold),
	)
	if err != nil {
		slog.Error("load face detector", "error", err)
		os.Exit(1)
	}
	defer detector.Close()

	predictor, err := vision.NewPredictor(
		filepath.Join(cfg.Vision.ModelsDir, "gender_net.onnx"),
		filepath.Join(cfg.Vision.ModelsDir, "age_net.onnx"),
	)
	if err != nil {
		slog.Error("load attribute models", "error", err)
		os.Exit(1)
	}
	defer predictor.Close()

	tracker := track.New(cfg.Tracking.MaxAge, cfg.Tracking.MinHits)

	eng := engine.New(tracker, predictor, cat, engine.Options{
		Padding:         cfg.Vision.Padding,
		StabilizeWindow: cfg.Engine.StabilizeWindow,
		MatchThreshold:  cfg.Engine.MatchThreshold,
		Sink:            sinks,
	})
	runner := engine.NewRunner(eng, detector)

	router := api.NewRouter(api.RouterConfig{
		APIKey:     cfg.Server.APIKey,
		System:     handlers.NewSystemHandler(readyChecks),
		Videos:     handlers.NewVideoHandler(eng, runner, cfg.Storage.UploadsDir, cfg.Storage.OutputDir),
		Detections: handlers.NewDetectionHandler(eng),
		Hub:        hub,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}

// getONNXLibPath returns the ONNX Runtime shared library path.
func getONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
