package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/facecat/internal/catalog"
	"github.com/your-org/facecat/internal/config"
	"github.com/your-org/facecat/internal/engine"
	"github.com/your-org/facecat/internal/observability"
	"github.com/your-org/facecat/internal/storage"
	"github.com/your-org/facecat/internal/track"
	"github.com/your-org/facecat/internal/vision"
)

// One-shot processor: run a single video through the engine and print
// the resulting catalog additions as JSON.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	inputPath := flag.String("input", "", "video file to process")
	outputPath := flag.String("output", "", "annotated output video (default: <input>_annotated.mp4)")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: process -input video.mp4 [-output annotated.mp4] [-config config.yaml]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	out := *outputPath
	if out == "" {
		ext := filepath.Ext(*inputPath)
		out = (*inputPath)[:len(*inputPath)-len(ext)] + "_annotated.mp4"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	faces, err := storage.NewLocalFaceStore(cfg.Storage.FacesDir)
	if err != nil {
		slog.Error("open local face store", "error", err)
		os.Exit(1)
	}

	cat, err := catalog.Open(ctx, store, faces)
	if err != nil {
		slog.Error("open catalog", "error", err)
		os.Exit(1)
	}

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

	eng := engine.New(
		track.New(cfg.Tracking.MaxAge, cfg.Tracking.MinHits),
		predictor,
		cat,
		engine.Options{
			Padding:         cfg.Vision.Padding,
			StabilizeWindow: cfg.Engine.StabilizeWindow,
			MatchThreshold:  cfg.Engine.MatchThreshold,
		},
	)
	runner := engine.NewRunner(eng, detector)

	summary, err := runner.ProcessVideo(ctx, *inputPath, out)
	if err != nil {
		slog.Error("process video", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		slog.Error("write summary", "error", err)
		os.Exit(1)
	}
}

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
