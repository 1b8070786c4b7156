// Package app は profilectl のコマンド定義を提供する。
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/repository"
	"github.com/k1s0-platform/system-server-go-profile/internal/infra/config"
	"github.com/k1s0-platform/system-server-go-profile/internal/infra/messaging"
	"github.com/k1s0-platform/system-server-go-profile/internal/infra/persistence"
	"github.com/k1s0-platform/system-server-go-profile/internal/infra/telemetry"
	"github.com/k1s0-platform/system-server-go-profile/internal/usecase"
)

const defaultConfigPath = "config/config.yaml"

// runtime はコマンド実行時に必要な依存関係を保持する。
type runtime struct {
	repo      repository.ProfileRepository
	publisher usecase.ProfileEventPublisher
	migrate   func(ctx context.Context) ([]int64, error)
	close     func() error
}

// runtimeFactory は設定ファイルのパスから runtime を組み立てる。
type runtimeFactory func(configPath string) (*runtime, error)

// NewRootCmd は profilectl のルートコマンドを作成する。
func NewRootCmd() *cobra.Command {
	return newRootCmd(openRuntime, defaultRandomUserURL)
}

func newRootCmd(factory runtimeFactory, randomUserURL string) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:               "profilectl",
		Short:             "profilectl manages profiles and awards",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", envOr("PROFILE_CONFIG", defaultConfigPath),
		"path to config file")

	withRuntime := func(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
		rt, err := factory(configPath)
		if err != nil {
			return err
		}
		defer func() {
			if rt.close != nil {
				if err := rt.close(); err != nil {
					slog.Warn("failed to close resources", "error", err)
				}
			}
		}()
		return fn(cmd.Context(), rt)
	}

	rootCmd.AddCommand(newProfilesCmd(withRuntime))
	rootCmd.AddCommand(newGenerateCmd(withRuntime, randomUserURL))
	rootCmd.AddCommand(newMigrateCmd(withRuntime))

	return rootCmd
}

type runtimeRunner func(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error

// openRuntime は設定を読み込み、DB と Kafka に接続する。
func openRuntime(configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	slog.SetDefault(telemetry.NewLoggerWithWriter(os.Stderr, telemetry.Config{
		ServiceName: "profilectl",
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		LogLevel:    cfg.Telemetry.LogLevel,
	}))

	db, err := persistence.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	rt := &runtime{
		repo: persistence.NewProfileRepository(db),
		migrate: func(ctx context.Context) ([]int64, error) {
			return persistence.Migrate(ctx, db)
		},
	}

	closers := []io.Closer{db}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := messaging.NewKafkaProducer(cfg.Kafka)
		rt.publisher = producer
		closers = append(closers, producer)
	}
	rt.close = func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}
	return rt, nil
}

// writeJSON は v をインデント付き JSON で出力する。
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readProfileInput は JSON ファイルから EditProfileInput を読み込み検証する。
func readProfileInput(path string) (usecase.EditProfileInput, error) {
	var input usecase.EditProfileInput
	data, err := os.ReadFile(path)
	if err != nil {
		return input, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := usecase.ValidateInput(input); err != nil {
		return input, err
	}
	return input, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
