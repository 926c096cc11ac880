package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/franckalain/nutritionscore/internal/additives"
	"github.com/franckalain/nutritionscore/internal/config"
	"github.com/franckalain/nutritionscore/internal/database"
	"github.com/franckalain/nutritionscore/internal/nutriscore"
	"github.com/franckalain/nutritionscore/internal/scoring"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:   "nutritionscore",
		Short: "Nutri-Score based food quality scoring",
		Long: `nutritionscore computes the Nutri-Score of a product, converts it to a
0-100 scale and subtracts penalties for risky additives and missing organic
certification.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.GetConfigPath(), "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		setupLogging(cfg.Server.Debug || verbose)
		return cfg, nil
	}

	rootCmd.AddCommand(
		newServeCmd(loadConfig),
		newScoreCmd(loadConfig),
		newTablesCmd(),
	)
	return rootCmd
}

func setupLogging(debug bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newService wires the scoring service from configuration and a registry
func newService(cfg *config.Config, reg *additives.Registry) (*scoring.Service, error) {
	tables, err := nutriscore.LoadTables(cfg.Scoring.TableVersion)
	if err != nil {
		return nil, err
	}

	rule, err := cfg.Scoring.MatchRule()
	if err != nil {
		return nil, err
	}

	defaults := cfg.Scoring.Settings()
	log.Debug().
		Str("table_version", tables.Version).
		Str("additive_match", string(rule)).
		Int("max_additives_penalty", defaults.MaxAdditivesPenalty).
		Int("non_organic_penalty", defaults.NonOrganicPenalty).
		Msg("Scoring service configured")

	return scoring.NewService(nutriscore.New(tables), reg, rule, defaults), nil
}

// loadRegistry reads the additive catalog at path, seeding it on first use.
// Every command scores against the same catalog.
func loadRegistry(ctx context.Context, path string) (*additives.Registry, error) {
	db, err := database.NewSQLiteDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	reg, err := database.LoadRegistry(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to load additives: %w", err)
	}
	return reg, nil
}
