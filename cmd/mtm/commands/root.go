package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile      string
	settingsFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mtm",
	Short: "MTM engine - 원자재 계약 Mark-to-Market 평가",
	Long: `MTM Engine Unified CLI

계약 테이블과 가격 시계열을 조인해 계약별 MTM을 계산합니다.
V1 정규화 → V2 분류 → V3 검증 → V4 가격 결정 → V5 조정 → V6 계산.

Usage:
  go run ./cmd/mtm [command]

Examples:
  go run ./cmd/mtm run --date 2025-06-20
  go run ./cmd/mtm serve
  go run ./cmd/mtm schedule start
  go run ./cmd/mtm generate --seed 42
  go run ./cmd/mtm config show`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file loaded before .env (default: .env only)")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "valuation settings YAML (default: $MTM_CONFIG or built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
