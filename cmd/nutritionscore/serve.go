package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/franckalain/nutritionscore/internal/config"
	"github.com/franckalain/nutritionscore/internal/server"
)

func newServeCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the websocket scoring server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			reg, err := loadRegistry(cmd.Context(), cfg.Database.Path)
			if err != nil {
				return err
			}

			svc, err := newService(cfg, reg)
			if err != nil {
				return fmt.Errorf("failed to configure scoring: %w", err)
			}

			// Initialize and start server
			srv := server.New(svc, server.Options{
				Debug:     cfg.Server.Debug,
				RateLimit: cfg.Server.RateLimit,
				RateBurst: cfg.Server.RateBurst,
			})
			if err := srv.Start(cfg.Server.Port, cfg.Server.StaticDir); err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
			log.Info().Msg("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on (overrides configuration)")
	return cmd
}
