package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/mtm-engine/internal/api"
	"github.com/wonny/mtm-engine/internal/api/handlers"
	"github.com/wonny/mtm-engine/internal/metrics"
	"github.com/wonny/mtm-engine/internal/valuation"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health               - Health check
  GET  /api/settings         - 서버 기본 평가 설정
  POST /api/valuations       - 평가 실행 (?format=csv 로 CSV 응답)
  GET  /metrics              - Prometheus metrics (METRICS_ENABLED=true)

Example:
  go run ./cmd/mtm serve
  go run ./cmd/mtm serve --port 9090 --with-scheduler`,
	RunE: runServe,
}

var (
	servePort          string
	serveWithScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default: $PORT)")
	serveCmd.Flags().BoolVar(&serveWithScheduler, "with-scheduler", false, "run the scheduled valuation job in the same process")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== MTM Engine API Server ===")

	// 1. Load config
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	// 2. Default settings for requests that omit them
	settings, settingsPath, err := loadSettings(cfg)
	if err != nil {
		return err
	}
	log.WithField("settings", settingsPath).Info("Initializing API server")

	// 3. Engine + handler + router
	engine := valuation.NewEngine(log, valuation.WithRecorder(metrics.Recorder{}))
	valuationHandler := handlers.NewValuationHandler(engine, settings, cfg.API.MaxBodySize, log)
	router := api.NewRouter(valuationHandler, cfg, log)
	server := api.New(cfg, log, router)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	// 4. Optional scheduler
	if serveWithScheduler {
		sched, closeFn, err := newValuationScheduler(cfg, log, settings, engine, sourceFile)
		if err != nil {
			return err
		}
		defer closeFn()
		sched.Start()
		defer sched.Stop()
	}

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/settings")
	fmt.Println("  POST /api/valuations")
	if cfg.MetricsEnabled {
		fmt.Println("  GET  /metrics")
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// signalContext is cancelled on Ctrl+C / SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
