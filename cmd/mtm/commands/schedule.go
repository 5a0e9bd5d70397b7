package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/mtm-engine/internal/metrics"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/scheduler"
	"github.com/wonny/mtm-engine/internal/scheduler/jobs"
	"github.com/wonny/mtm-engine/internal/valuation"
	"github.com/wonny/mtm-engine/pkg/config"
	"github.com/wonny/mtm-engine/pkg/logger"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "정기 평가 스케줄러",
	Long: `cron 스케줄로 전체 평가를 반복 실행합니다.

매 실행은 독립적인 전체 배치입니다 (증분 상태 없음).
리포트는 $MTM_OUTPUT_DIR/<평가일>/ 에 저장됩니다.

Subcommands:
  start   - 스케줄러 시작 ($MTM_SCHEDULE, 기본 평일 18:00)
  run     - 평가 작업 즉시 1회 실행
  next    - 다음 실행 시각 조회

Example:
  go run ./cmd/mtm schedule start
  go run ./cmd/mtm schedule run --source postgres`,
}

var (
	scheduleStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduleStart,
	}

	scheduleRunCmd = &cobra.Command{
		Use:   "run",
		Short: "평가 작업 즉시 실행",
		RunE:  runScheduleNow,
	}

	scheduleNextCmd = &cobra.Command{
		Use:   "next",
		Short: "다음 실행 시각",
		RunE:  runScheduleNext,
	}
)

var (
	scheduleSource  string
	scheduleRetries int
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleStartCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(scheduleNextCmd)

	scheduleCmd.PersistentFlags().StringVar(&scheduleSource, "source", sourceFile, "input source (file|postgres)")
	scheduleCmd.PersistentFlags().IntVar(&scheduleRetries, "retries", 3, "retries after a failed run")
}

// newValuationScheduler wires the valuation job into a scheduler
func newValuationScheduler(cfg *config.Config, log *logger.Logger, settings mtmconfig.Settings, engine *valuation.Engine, source string) (*scheduler.Scheduler, func(), error) {
	src, err := openSources(cfg, source, cfg.MTM.ContractsPath, cfg.MTM.PricesPath)
	if err != nil {
		return nil, nil, err
	}

	job := jobs.NewValuationJob(jobs.ValuationJobConfig{
		Contracts: src.contracts,
		Prices:    src.prices,
		Engine:    engine,
		Settings:  settings,
		OutputDir: cfg.MTM.OutputDir,
		Schedule:  cfg.MTM.Schedule,
	}, log)

	sched := scheduler.New(log, scheduler.WithRetries(scheduleRetries, scheduler.DefaultRetryDelay))
	if err := sched.AddJob(job); err != nil {
		src.close()
		return nil, nil, err
	}
	return sched, src.close, nil
}

func initScheduler() (*scheduler.Scheduler, func(), error) {
	cfg, log, err := bootstrap()
	if err != nil {
		return nil, nil, err
	}
	settings, _, err := loadSettings(cfg)
	if err != nil {
		return nil, nil, err
	}
	engine := valuation.NewEngine(log, valuation.WithRecorder(metrics.Recorder{}))
	return newValuationScheduler(cfg, log, settings, engine, scheduleSource)
}

func runScheduleStart(cmd *cobra.Command, args []string) error {
	fmt.Println("=== MTM Engine Scheduler ===")

	sched, closeFn, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer closeFn()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for name, st := range sched.GetJobStats() {
		next, _ := sched.NextRun(name)
		fmt.Printf("  - %s (%s), next run %s\n", name, st.Schedule, next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	<-ctx.Done()

	sched.Stop()
	return nil
}

func runScheduleNow(cmd *cobra.Command, args []string) error {
	sched, closeFn, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer closeFn()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	for _, name := range sched.GetAllJobs() {
		res, err := sched.RunJob(ctx, name)
		if err != nil {
			return err
		}

		PrintKeyValue("Job", res.JobName, 9)
		PrintKeyValue("Attempts", strconv.Itoa(res.Attempts), 9)
		PrintKeyValue("Duration", res.Duration.String(), 9)
		if !res.Success {
			PrintError(res.Error)
			return fmt.Errorf("job %s failed", name)
		}
		PrintSuccess("Job completed")
	}
	return nil
}

func runScheduleNext(cmd *cobra.Command, args []string) error {
	sched, closeFn, err := initScheduler()
	if err != nil {
		return err
	}
	defer closeFn()

	// Entry.Next 는 cron 시작 후에만 계산됨
	sched.Start()
	defer sched.Stop()

	for _, name := range sched.GetAllJobs() {
		next, err := sched.NextRun(name)
		if err != nil {
			return err
		}
		PrintKeyValue(name, next.Format("2006-01-02 15:04:05 MST"), 14)
	}
	return nil
}
