package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mrsinham/dicombids/internal/anonymize"
	"github.com/mrsinham/dicombids/internal/bids"
	"github.com/mrsinham/dicombids/internal/config"
	"github.com/mrsinham/dicombids/internal/convert"
	"github.com/mrsinham/dicombids/internal/export"
	"github.com/mrsinham/dicombids/internal/logging"
	"github.com/mrsinham/dicombids/internal/storage"
)

// app holds the components built from the configuration.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	assembler *export.Assembler
	publisher storage.Publisher
}

func newApp(configFile string, fallbackOnly bool) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if fallbackOnly {
		cfg.Converter.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cfg.Env)

	anonymizer, err := anonymize.New(cfg.Anonymize.ExtraFields, logger)
	if err != nil {
		return nil, err
	}

	converter := convert.New(convert.Options{
		Command:    cfg.Converter.Command,
		Args:       cfg.Converter.Args,
		Disabled:   !cfg.Converter.Enabled,
		ScratchDir: cfg.Export.ScratchDir,
	}, nil, logger)

	assembler := export.New(export.Options{
		ScratchDir:  cfg.Export.ScratchDir,
		FileTimeout: cfg.Export.FileTimeout,
		Description: bids.DatasetDescription{
			Name:    cfg.Export.Dataset.Name,
			Authors: cfg.Export.Dataset.Authors,
			License: cfg.Export.Dataset.License,
		},
	}, anonymizer, converter, logger)

	publisher, err := newPublisher(cfg.Publish, logger)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, assembler: assembler, publisher: publisher}, nil
}

// newPublisher returns nil when publishing is off.
func newPublisher(cfg config.PublishConfig, logger *zap.Logger) (storage.Publisher, error) {
	switch cfg.Kind {
	case config.PublishLocal:
		return storage.NewLocal(cfg.Dir, logger), nil
	case config.PublishMinIO:
		m, err := storage.NewMinIO(storage.MinIOOptions{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			Prefix:    cfg.MinIO.Prefix,
			Secure:    cfg.MinIO.Secure,
		}, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, nil
	}
}
