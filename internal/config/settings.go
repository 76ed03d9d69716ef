package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

type Config struct {
	// Sources are fetched with a plain GET. RenderSources go through the
	// headless browser for pages that only materialize their list in JS.
	Sources       []string `json:"sources"`
	RenderSources []string `json:"render_sources"`

	Checker struct {
		Threads uint32 `json:"threads"`
		Timeout uint32 `json:"timeout"` // per-request, milliseconds

		// DeadlineSlack is added to Timeout for the hard per-task budget,
		// the safety net against relays that accept and then stall.
		DeadlineSlack uint32 `json:"deadline_slack"`

		MaxChecks uint32 `json:"max_checks"` // 0 = test the whole pool
		StopAfter uint32 `json:"stop_after"` // 0 = exhaustive

		// RequireAllJudges makes validation a logical AND across judges.
		// When false the first passing judge settles the candidate.
		RequireAllJudges bool     `json:"require_all_judges"`
		Judges           []string `json:"judges"`

		IpLookup string `json:"ip_lookup"`
	} `json:"checker"`

	Scraper struct {
		Threads       uint32 `json:"threads"`
		Timeout       uint32 `json:"timeout"`
		RespectRobots bool   `json:"respect_robots"`
	} `json:"scraper"`

	Output struct {
		Dir         string `json:"dir"`
		ResultsFile string `json:"results_file"`
		ListFile    string `json:"list_file"`
		BestFile    string `json:"best_file"`
		ReportFile  string `json:"report_file"`
	} `json:"output"`
}

func (cfg Config) ResultsPath() string {
	return filepath.Join(cfg.Output.Dir, cfg.Output.ResultsFile)
}

func (cfg Config) ListPath() string {
	return filepath.Join(cfg.Output.Dir, cfg.Output.ListFile)
}

func (cfg Config) BestPath() string {
	return filepath.Join(cfg.Output.Dir, cfg.Output.BestFile)
}

func (cfg Config) ReportPath() string {
	return filepath.Join(cfg.Output.Dir, cfg.Output.ReportFile)
}

func (cfg Config) Validate() error {
	if len(cfg.Sources)+len(cfg.RenderSources) == 0 {
		return errors.New("config: no sources configured")
	}
	if len(cfg.Checker.Judges) == 0 {
		return errors.New("config: no judges configured")
	}
	if cfg.Checker.Threads == 0 {
		return errors.New("config: checker threads must be positive")
	}
	if cfg.Checker.Timeout == 0 {
		return errors.New("config: checker timeout must be positive")
	}
	if cfg.Scraper.Threads == 0 {
		return errors.New("config: scraper threads must be positive")
	}
	if cfg.Scraper.Timeout == 0 {
		return errors.New("config: scraper timeout must be positive")
	}
	if cfg.Output.Dir == "" {
		return errors.New("config: output dir must be set")
	}
	for name, file := range map[string]string{
		"results_file": cfg.Output.ResultsFile,
		"list_file":    cfg.Output.ListFile,
		"best_file":    cfg.Output.BestFile,
		"report_file":  cfg.Output.ReportFile,
	} {
		if file == "" {
			return fmt.Errorf("config: output %s must be set", name)
		}
	}
	return nil
}

const settingsFilePath = "data/settings.json"

var (
	//go:embed default_settings.json
	defaultConfig []byte

	configValue atomic.Value
	configMu    sync.Mutex
)

func init() {
	configValue.Store(Config{})
}

func ReadSettings() error {
	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Settings file not found, creating with default configuration")

			if err := os.MkdirAll(filepath.Dir(settingsFilePath), os.ModePerm); err != nil {
				return fmt.Errorf("create directory for settings file: %w", err)
			}
			if err := os.WriteFile(settingsFilePath, defaultConfig, os.ModePerm); err != nil {
				return fmt.Errorf("write default settings file: %w", err)
			}

			data = defaultConfig
		} else {
			return fmt.Errorf("read settings file: %w", err)
		}
	}

	var newConfig Config
	if err := json.Unmarshal(data, &newConfig); err != nil {
		return fmt.Errorf("unmarshal settings file: %w", err)
	}

	SetConfig(newConfig)
	log.Debug("Settings file loaded successfully")
	return nil
}

func SetConfig(newConfig Config) {
	configMu.Lock()
	defer configMu.Unlock()

	configValue.Store(newConfig)
}

func GetConfig() Config {
	return configValue.Load().(Config)
}
