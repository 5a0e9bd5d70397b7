package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/mtm-engine/internal/mtmconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "설정 조회/검증",
	Long: `평가 설정(YAML)과 프로세스 설정(env)을 확인합니다.

Subcommands:
  show      - 적용될 평가 설정과 해시 출력
  validate  - 설정 파일 검증 (필수 + 권장)
  env       - 프로세스 설정 출력

Example:
  go run ./cmd/mtm config show --settings configs/mtm.yaml
  go run ./cmd/mtm config validate configs/mtm.yaml`,
}

var (
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "평가 설정 출력",
		RunE:  runConfigShow,
	}

	configValidateCmd = &cobra.Command{
		Use:   "validate [path]",
		Short: "설정 파일 검증",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigValidate,
	}

	configEnvCmd = &cobra.Command{
		Use:   "env",
		Short: "프로세스 설정 출력",
		RunE:  runConfigEnv,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configEnvCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := bootstrap()
	if err != nil {
		return err
	}
	settings, path, err := loadSettings(cfg)
	if err != nil {
		return err
	}

	hash, err := mtmconfig.Hash(&settings)
	if err != nil {
		return err
	}

	fmt.Printf("# source: %s\n# hash:   %s\n", path, hash)
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return err
	}
	return enc.Close()
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Load 내부에서 Validate 까지 수행
	settings, _, err := mtmconfig.Load(args[0])
	if err != nil {
		PrintError(err.Error())
		return err
	}

	warnings := mtmconfig.Warn(settings)
	for _, w := range warnings {
		fmt.Printf("⚠️  [%s] %s\n", w.Code, w.Message)
	}

	PrintSuccess(fmt.Sprintf("%s is valid (%d warnings)", args[0], len(warnings)))
	return nil
}

func runConfigEnv(cmd *cobra.Command, args []string) error {
	cfg, _, err := bootstrap()
	if err != nil {
		return err
	}

	const w = 16
	PrintKeyValue("ENV", cfg.Env, w)
	PrintKeyValue("PORT", cfg.Port, w)
	PrintKeyValue("LOG_LEVEL", cfg.LogLevel, w)
	PrintKeyValue("LOG_FORMAT", cfg.LogFormat, w)
	PrintKeyValue("DATABASE_URL", redact(cfg.Database.URL), w)
	PrintKeyValue("MTM_CONFIG", orDefault(cfg.MTM.SettingsPath, "(defaults)"), w)
	PrintKeyValue("MTM_CONTRACTS", cfg.MTM.ContractsPath, w)
	PrintKeyValue("MTM_PRICES", cfg.MTM.PricesPath, w)
	PrintKeyValue("MTM_OUTPUT_DIR", cfg.MTM.OutputDir, w)
	PrintKeyValue("MTM_SCHEDULE", cfg.MTM.Schedule, w)
	PrintKeyValue("API_RATE_LIMIT", strconv.FormatFloat(cfg.API.RateLimit, 'g', -1, 64), w)
	PrintKeyValue("API_RATE_BURST", strconv.Itoa(cfg.API.RateBurst), w)
	PrintKeyValue("CORS_ORIGINS", strings.Join(cfg.API.CORSOrigins, ","), w)
	PrintKeyValue("METRICS_ENABLED", strconv.FormatBool(cfg.MetricsEnabled), w)
	return nil
}

// redact hides the password part of a connection URL
func redact(url string) string {
	if url == "" {
		return "(not set)"
	}
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return url
	}
	creds := url[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		creds = creds[:i] + ":****"
	}
	return url[:scheme+3] + creds + url[at:]
}
