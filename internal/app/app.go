package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"shrike/internal/config"
	"shrike/internal/jobs/scraper"
	"shrike/internal/judge"
	"shrike/internal/pipeline"
	"shrike/internal/support"
)

// ErrInterrupted reports a run cut short by SIGINT or SIGTERM. main maps
// it to exit code 130.
var ErrInterrupted = errors.New("run interrupted")

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.")
	}

	threadsFlag := flag.Uint("threads", 0, "Concurrent proxy checks, 0 uses the settings value")
	timeoutFlag := flag.Uint("timeout", 0, "Per-request timeout in milliseconds, 0 uses the settings value")
	fullFlag := flag.Bool("full", false, "Skip the previous-best fast path and test the whole pool")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugFlag {
		log.SetLevel(log.DebugLevel)
	}

	if err := config.ReadSettings(); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := config.GetConfig()
	if threads := resolveCount("CHECKER_THREADS", uint32(*threadsFlag)); threads != 0 {
		cfg.Checker.Threads = threads
	}
	if timeout := resolveCount("CHECKER_TIMEOUT", uint32(*timeoutFlag)); timeout != 0 {
		cfg.Checker.Timeout = timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	config.SetConfig(cfg)

	judges, err := judge.ParseJudges(cfg.Checker.Judges)
	if err != nil {
		return fmt.Errorf("failed to parse judges: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer scraper.Cleanup()
	defer func() {
		if err := support.CloseRedisClient(); err != nil {
			log.Warn("error closing redis client", "error", err)
		}
	}()

	if _, err := pipeline.New(cfg, judges).Run(ctx, *fullFlag); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Run interrupted by signal")
			return ErrInterrupted
		}
		return err
	}
	return nil
}

// resolveCount prefers the env override, then the flag value. Zero means
// the settings file wins.
func resolveCount(envKey string, fallback uint32) uint32 {
	if value := readCount(envKey); value != 0 {
		return value
	}
	return fallback
}

func readCount(envKey string) uint32 {
	raw := os.Getenv(envKey)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		log.Warn("invalid count override", "env", envKey, "value", raw)
		return 0
	}
	return uint32(value)
}
