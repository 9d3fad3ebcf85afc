package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/internal/ratelimiter"
	"github.com/marmos91/appshell/pkg/bridge"
	"github.com/marmos91/appshell/pkg/metrics"
	"github.com/marmos91/appshell/pkg/shell"
	"github.com/marmos91/appshell/pkg/store"
	storeBadger "github.com/marmos91/appshell/pkg/store/badger"
	"github.com/marmos91/appshell/pkg/store/memory"
	storeS3 "github.com/marmos91/appshell/pkg/store/s3"
)

// CreateOpener returns the function that opens the configured sandbox.
//
// This factory uses the Type field to select the backend, then decodes the
// type-specific section of the configuration. Nothing is opened yet: the
// bridge opens the sandbox on its first operation.
//
// Supported types:
//   - "memory": pkg/store/memory (volatile)
//   - "badger": pkg/store/badger (persistent, local)
//   - "s3": pkg/store/s3 (Amazon S3 or compatible storage)
func CreateOpener(ctx context.Context, cfg *StorageConfig) (store.OpenFunc, error) {
	switch cfg.Type {
	case "memory":
		return memory.Open, nil
	case "badger":
		return createBadgerOpener(cfg.Badger)
	case "s3":
		return createS3Opener(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage type: %q (supported: memory, badger, s3)", cfg.Type)
	}
}

// createBadgerOpener decodes the BadgerDB sandbox options.
func createBadgerOpener(options map[string]any) (store.OpenFunc, error) {
	var storeCfg storeBadger.Config
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger storage config: %w", err)
	}

	if storeCfg.DBPath == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger storage: db_path is required")
	}

	return storeBadger.Opener(storeCfg), nil
}

// S3Options are the options of the s3 storage section.
type S3Options struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// decodeS3Options decodes and validates the s3 storage section.
func decodeS3Options(options map[string]any) (*S3Options, error) {
	var opts S3Options
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 storage config: %w", err)
	}

	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 storage: bucket is required")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("S3 storage: region is required")
	}
	if (opts.AccessKeyID == "") != (opts.SecretAccessKey == "") {
		return nil, fmt.Errorf("S3 storage: access_key_id and secret_access_key must be set together")
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 10
	}

	return &opts, nil
}

// createS3Opener builds the S3 client and returns an opener bound to it.
func createS3Opener(ctx context.Context, options map[string]any) (store.OpenFunc, error) {
	opts, err := decodeS3Options(options)
	if err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(opts.Region),
	}

	// Static credentials if provided, otherwise the default credential chain
	if opts.AccessKeyID != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	// Retry transient failures (502, 503, timeouts) more than the SDK default of 3
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = opts.MaxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Custom endpoints (MinIO, Localstack) need path-style addressing
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	// ========================================================================
	// Step 3: Bind the sandbox opener
	// ========================================================================

	s3Metrics := metrics.NewS3Metrics()

	logger.Info("S3 storage configured: bucket=%s, region=%s, prefix=%s",
		opts.Bucket, opts.Region, opts.KeyPrefix)

	return func(ctx context.Context, quotaBytes uint64) (store.Store, error) {
		return storeS3.New(ctx, storeS3.Config{
			Client:    client,
			Bucket:    opts.Bucket,
			KeyPrefix: opts.KeyPrefix,
			Metrics:   s3Metrics,
		}, quotaBytes)
	}, nil
}

// CreateSeeder builds the seeder for the configured layout.
func CreateSeeder(cfg *SeedConfig) *bridge.Seeder {
	layout := bridge.Layout{
		Directories: cfg.Directories,
		Files:       cfg.Files,
	}
	return bridge.NewSeeder(layout, cfg.Strict, cfg.Concurrency)
}

// CreateBridge wires the configured sandbox, seed layout, dispatch limits
// and metrics into a Bridge. The sandbox is opened lazily.
func CreateBridge(ctx context.Context, cfg *Config, bridgeMetrics bridge.Metrics) (*bridge.Bridge, error) {
	open, err := CreateOpener(ctx, &cfg.Storage)
	if err != nil {
		return nil, err
	}

	roots := bridge.NewRootManager(open, cfg.Storage.QuotaBytes, CreateSeeder(&cfg.Seed))

	opts := bridge.Options{Metrics: bridgeMetrics}
	if cfg.Limits.OpsPerSecond > 0 {
		opts.Limiter = ratelimiter.New(cfg.Limits.OpsPerSecond, cfg.Limits.Burst)
	}

	logger.Debug("Bridge configured: storage=%s quota=%d ops_per_second=%d",
		cfg.Storage.Type, cfg.Storage.QuotaBytes, cfg.Limits.OpsPerSecond)

	return bridge.New(roots, opts), nil
}

// CreateShell builds the shell stub layer on the configured native host.
func CreateShell(cfg *ShellConfig) (*shell.Shell, error) {
	var native shell.Native
	switch cfg.Native {
	case "headless":
		native = shell.NewHeadlessNative()
	case "desktop":
		native = shell.NewDesktopNative(nil)
	default:
		return nil, fmt.Errorf("unknown shell native: %q (supported: headless, desktop)", cfg.Native)
	}

	return shell.New(native, shell.Options{
		Language:      cfg.Language,
		AppSupportDir: cfg.AppSupportDir,
	}), nil
}
