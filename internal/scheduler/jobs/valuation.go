package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/report"
	"github.com/wonny/mtm-engine/internal/scheduler"
	"github.com/wonny/mtm-engine/internal/tenor"
	"github.com/wonny/mtm-engine/internal/validation"
	"github.com/wonny/mtm-engine/internal/valuation"
	"github.com/wonny/mtm-engine/pkg/logger"
)

// SnapshotFile is the run metadata written next to the reports
const SnapshotFile = "run.json"

// ValuationJob values the book from its sources and saves the reports
// under <OutputDir>/<valuation date>/
type ValuationJob struct {
	contractSrc contracts.ContractSource
	priceSrc    contracts.PriceSource
	engine      *valuation.Engine
	settings    mtmconfig.Settings
	outputDir   string
	schedule    string
	now         func() time.Time
	logger      *logger.Logger

	mu   sync.Mutex
	last *contracts.Report
}

// ValuationJobConfig holds the inputs of a ValuationJob
type ValuationJobConfig struct {
	Contracts contracts.ContractSource
	Prices    contracts.PriceSource
	Engine    *valuation.Engine
	Settings  mtmconfig.Settings
	OutputDir string
	Schedule  string

	// Now defaults to time.Now; the valuation date is its calendar day
	Now func() time.Time
}

// NewValuationJob creates a new valuation job
func NewValuationJob(cfg ValuationJobConfig, log *logger.Logger) *ValuationJob {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ValuationJob{
		contractSrc: cfg.Contracts,
		priceSrc:    cfg.Prices,
		engine:      cfg.Engine,
		settings:    cfg.Settings,
		outputDir:   cfg.OutputDir,
		schedule:    cfg.Schedule,
		now:         now,
		logger:      log,
	}
}

// Name returns the job name
func (j *ValuationJob) Name() string {
	return "mtm_valuation"
}

// Schedule returns the cron schedule
func (j *ValuationJob) Schedule() string {
	return j.schedule
}

// Last returns the report of the last successful run
func (j *ValuationJob) Last() *contracts.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

// Run loads both tables, values them and writes the reports
func (j *ValuationJob) Run(ctx context.Context) error {
	valDate := tenor.Day(j.now())
	log := j.logger.WithField("valuation_date", valDate.Format("2006-01-02"))
	log.Info("Starting scheduled valuation")

	var (
		rows   []contracts.ContractRow
		prices []contracts.PriceRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = j.contractSrc.Contracts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = j.priceSrc.Prices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load inputs: %w", err)
	}

	rep, err := j.engine.Run(rows, prices, valDate, j.settings)
	if err != nil {
		var perr *validation.PolicyError
		if errors.As(err, &perr) {
			// 재시도해도 같은 결과
			return scheduler.Permanent(err)
		}
		return err
	}

	snap, err := mtmconfig.NewRunSnapshot(&j.settings, valDate)
	if err != nil {
		return err
	}
	rep.RunID = snap.RunID
	rep.SettingsHash = snap.SettingsHash

	dir := filepath.Join(j.outputDir, valDate.Format("2006-01-02"))
	paths, err := report.Save(dir, rep)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if err := writeSnapshot(filepath.Join(dir, SnapshotFile), snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	j.mu.Lock()
	j.last = rep
	j.mu.Unlock()
	log.WithFields(map[string]interface{}{
		"run_id":    rep.RunID,
		"total_mtm": rep.TotalMTM,
		"valued":    rep.ValuedCount,
		"files":     paths,
	}).Info("Scheduled valuation completed")

	return nil
}

func writeSnapshot(path string, snap *mtmconfig.RunSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
