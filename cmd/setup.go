package cmd

import (
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"ocrprep/internal/config"
	"ocrprep/internal/logging"
)

// run holds everything a command needs once flags, env and .env are merged.
type run struct {
	cfg    config.Config
	roots  []string
	logger *zap.Logger
}

func bind(flag *pflag.Flag, key string) {
	if err := store.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func prepare(args []string) (*run, error) {
	if _, err := config.ReadEnvFile(store, envFile); err != nil {
		return nil, err
	}
	s := config.Load(store, args)

	cfg, err := s.Validate()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Verbose: cfg.Verbose})
	if err != nil {
		return nil, err
	}

	roots, err := config.ResolveRoots(s.Source(), logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Debug("resolved roots", zap.Strings("roots", roots))
	return &run{cfg: cfg, roots: roots, logger: logger}, nil
}
