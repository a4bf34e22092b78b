package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/microbialman/igaseq/adapters/postgres"
	"github.com/microbialman/igaseq/internal/config"
	"github.com/microbialman/igaseq/ui"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored analysis runs and rendered reports over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port == "" {
				port = cfg.ServerPort
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL must be set to serve stored runs")
			}

			db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer db.Close()

			repo := postgres.NewResultRepository(db)
			if err := repo.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			return ui.NewServer(repo).ListenAndServe(port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (defaults to PORT env or 8080)")
	return cmd
}
