package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"roster/internal/config"
	"roster/internal/logging"
	"roster/internal/services"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// run holds the per-invocation state shared by the pipeline commands: the
// loaded configuration, the run logger, and the context tagged with the
// run identifier.
type run struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
}

// beginRun acquires the dataset run lock and builds the run logger. The
// returned cleanup releases the lock and prunes expired log files;
// callers defer it.
func beginRun(cmd *cobra.Command, cctx *commandContext, logFile string) (*run, func(), error) {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, nil, services.Wrap(services.ErrConflict, cmd.Name(), "acquire run lock",
			fmt.Sprintf("another roster run holds %s", cfg.LockPath()), nil)
	}

	logPath := strings.TrimSpace(logFile)
	if logPath == "" {
		logPath = cfg.LogFilePath(cmd.Name())
	}
	logger, err := logging.NewFromConfig(cfg, logPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, err
	}

	ctx := services.WithRunID(cmd.Context(), uuid.NewString())
	ctx = services.WithCommand(ctx, cmd.Name())
	logger = logging.WithContext(ctx, logger)
	logger.Info("roster run started", logging.String("lock", cfg.LockPath()))

	cleanup := func() {
		logger.Info("roster run finished")
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir, logPath)
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(logger, "failed to release run lock", "lock_release_failed",
				logging.String(logging.FieldPath, cfg.LockPath()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the lock file if no roster run is active"),
				logging.String(logging.FieldImpact, "the next run may refuse to start"))
		}
	}
	return &run{ctx: ctx, cfg: cfg, logger: logger}, cleanup, nil
}
