package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/loader"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/tenor"
	"github.com/wonny/mtm-engine/pkg/config"
	"github.com/wonny/mtm-engine/pkg/database"
	"github.com/wonny/mtm-engine/pkg/logger"
)

// Input sources for run / schedule
const (
	sourceFile     = "file"
	sourcePostgres = "postgres"
)

// bootstrap loads process config and the logger
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// loadSettings resolves --settings, then $MTM_CONFIG, then the defaults
func loadSettings(cfg *config.Config) (mtmconfig.Settings, string, error) {
	path := settingsFile
	if path == "" {
		path = cfg.MTM.SettingsPath
	}
	if path == "" {
		return mtmconfig.Defaults(), "(defaults)", nil
	}

	s, _, err := mtmconfig.Load(path)
	if err != nil {
		return mtmconfig.Settings{}, path, fmt.Errorf("load settings %s: %w", path, err)
	}
	return *s, path, nil
}

// parseValuationDate parses --date; empty means today
func parseValuationDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return tenor.Day(time.Now()), nil
	}
	d, err := tenor.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", raw, err)
	}
	return d, nil
}

// sources is a contract/price source pair plus its cleanup
type sources struct {
	contracts contracts.ContractSource
	prices    contracts.PriceSource
	close     func()
}

// openSources returns file or Postgres sources
func openSources(cfg *config.Config, kind, contractsPath, pricesPath string) (*sources, error) {
	switch kind {
	case sourceFile, "":
		src := loader.FileSource{ContractsPath: contractsPath, PricesPath: pricesPath}
		return &sources{contracts: src, prices: src, close: func() {}}, nil

	case sourcePostgres:
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		src := loader.NewPostgresSource(db.Pool)
		return &sources{contracts: src, prices: src, close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown source %q (file, postgres)", kind)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
