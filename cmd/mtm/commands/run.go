package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/report"
	"github.com/wonny/mtm-engine/internal/validation"
	"github.com/wonny/mtm-engine/internal/valuation"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "MTM 평가 1회 실행",
	Long: `계약/가격 테이블을 읽어 평가를 1회 실행하고 리포트를 저장합니다.

이 명령어는:
- Contracts / Prices 파일(CSV, XLSX) 또는 Postgres 테이블 로드
- 6단계 파이프라인 실행 (정규화 → 분류 → 검증 → 가격 결정 → 조정 → 계산)
- mtm_report.csv / mtm_report.xlsx 를 <output>/<date>/ 에 저장
- 콘솔에 요약과 미리보기 출력

Example:
  go run ./cmd/mtm run --date 2025-06-20
  go run ./cmd/mtm run --contracts data/Contracts.xlsx --prices data/Prices.xlsx
  go run ./cmd/mtm run --source postgres --preview 20`,
	RunE: runValuation,
}

var (
	runContracts string
	runPrices    string
	runDate      string
	runSource    string
	runOutput    string
	runPreview   int
	runNoSave    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().StringVar(&runContracts, "contracts", "", "contracts file (default: $MTM_CONTRACTS)")
	runCmd.Flags().StringVar(&runPrices, "prices", "", "prices file (default: $MTM_PRICES)")
	runCmd.Flags().StringVar(&runDate, "date", "", "valuation date YYYY-MM-DD (default: today)")
	runCmd.Flags().StringVar(&runSource, "source", sourceFile, "input source (file|postgres)")
	runCmd.Flags().StringVar(&runOutput, "out", "", "output directory (default: $MTM_OUTPUT_DIR/<date>)")
	runCmd.Flags().IntVar(&runPreview, "preview", 10, "result rows to print (-1 = all)")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "do not write report files")
}

func runValuation(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	// 2. Settings (run 시작 후 불변)
	settings, settingsPath, err := loadSettings(cfg)
	if err != nil {
		return err
	}
	for _, w := range mtmconfig.Warn(&settings) {
		PrintWarning(w.Message)
	}

	valDate, err := parseValuationDate(runDate)
	if err != nil {
		return err
	}

	snap, err := mtmconfig.NewRunSnapshot(&settings, valDate)
	if err != nil {
		return err
	}

	contractsPath := orDefault(runContracts, cfg.MTM.ContractsPath)
	pricesPath := orDefault(runPrices, cfg.MTM.PricesPath)
	sourceLabel := fmt.Sprintf("%s, %s", contractsPath, pricesPath)
	if runSource == sourcePostgres {
		sourceLabel = "postgres (mtm.contracts, mtm.prices)"
	}

	PrintRunHeader(RunMetadata{
		Title:         "MTM Valuation",
		RunID:         snap.RunID,
		ValuationDate: valDate.Format("2006-01-02"),
		Source:        sourceLabel,
		Settings:      settingsPath,
		SettingsHash:  snap.SettingsHash,
	})

	// 3. Load inputs
	src, err := openSources(cfg, runSource, contractsPath, pricesPath)
	if err != nil {
		return err
	}
	defer src.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	rows, prices, err := loadInputs(ctx, src)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	PrintInfo(fmt.Sprintf("Loaded %d contracts, %d price rows", len(rows), len(prices)))

	// 4. Valuation
	start := time.Now()
	rep, err := valuation.NewEngine(log).Run(rows, prices, valDate, settings)
	if err != nil {
		var perr *validation.PolicyError
		if errors.As(err, &perr) {
			PrintError(fmt.Sprintf("Run aborted by policy: %s", perr.Error()))
		} else {
			PrintError(err.Error())
		}
		return err
	}
	rep.RunID = snap.RunID
	rep.SettingsHash = snap.SettingsHash

	// 5. Output
	fmt.Println()
	report.WriteSummary(os.Stdout, rep)
	PrintPreview(rep, runPreview)
	fmt.Println()

	if !runNoSave {
		dir := runOutput
		if dir == "" {
			dir = filepath.Join(cfg.MTM.OutputDir, valDate.Format("2006-01-02"))
		}
		paths, err := report.Save(dir, rep)
		if err != nil {
			PrintError(err.Error())
			return err
		}
		PrintList(paths)
	}

	PrintSuccess(fmt.Sprintf("Valuation completed in %.2fs", time.Since(start).Seconds()))
	return nil
}

// loadInputs reads both tables concurrently
func loadInputs(ctx context.Context, src *sources) ([]contracts.ContractRow, []contracts.PriceRow, error) {
	var (
		rows   []contracts.ContractRow
		prices []contracts.PriceRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = src.contracts.Contracts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = src.prices.Prices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("load inputs: %w", err)
	}
	return rows, prices, nil
}
