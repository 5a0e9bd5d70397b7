package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/mtm-engine/internal/loader"
	"github.com/wonny/mtm-engine/pkg/database"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Postgres 입력 테이블 관리",
	Long: `DATABASE_URL 의 Postgres 에 입력 테이블을 준비합니다.

Subcommands:
  check   - 연결 확인, 풀 상태 출력, 스키마 생성
  import  - Contracts/Prices 파일을 mtm.contracts / mtm.prices 로 교체 적재

Example:
  go run ./cmd/mtm db check
  go run ./cmd/mtm db import --contracts data/Contracts.xlsx --prices data/Prices.xlsx`,
}

var (
	dbCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "DB 연결 확인",
		RunE:  runDBCheck,
	}

	dbImportCmd = &cobra.Command{
		Use:   "import",
		Short: "파일을 DB로 적재",
		RunE:  runDBImport,
	}
)

var (
	importContracts string
	importPrices    string
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbCheckCmd)
	dbCmd.AddCommand(dbImportCmd)

	dbImportCmd.Flags().StringVar(&importContracts, "contracts", "", "contracts file (default: $MTM_CONTRACTS)")
	dbImportCmd.Flags().StringVar(&importPrices, "prices", "", "prices file (default: $MTM_PRICES)")
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	health, err := db.HealthCheck(ctx)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	stats := db.Stats()
	PrintKeyValue("Healthy", fmt.Sprintf("%v", health.Healthy), 12)
	PrintKeyValue("Connections", fmt.Sprintf("%d total / %d idle", stats.TotalConns, stats.IdleConns), 12)

	if err := loader.NewPostgresSource(db.Pool).EnsureSchema(ctx); err != nil {
		PrintError(err.Error())
		return err
	}
	log.Info("Database schema ready")
	PrintSuccess("Database ready (mtm.contracts, mtm.prices)")
	return nil
}

func runDBImport(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	contractsPath := orDefault(importContracts, cfg.MTM.ContractsPath)
	pricesPath := orDefault(importPrices, cfg.MTM.PricesPath)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	pair, err := loader.LoadPair(ctx, contractsPath, pricesPath)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	defer db.Close()

	src := loader.NewPostgresSource(db.Pool)
	if err := src.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := src.ImportPair(ctx, pair); err != nil {
		PrintError(err.Error())
		return err
	}

	log.WithFields(map[string]interface{}{
		"contracts": len(pair.Contracts),
		"prices":    len(pair.Prices),
	}).Info("Imported input tables")
	PrintSuccess(fmt.Sprintf("Imported %d contracts, %d price rows", len(pair.Contracts), len(pair.Prices)))
	return nil
}
