package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"meridian/internal/infrastructure/config"
	"meridian/internal/infrastructure/database"
	"meridian/internal/infrastructure/migration"
	"meridian/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations including applying the schema and checking table status.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply the database schema",
		Long:  `Apply the schema for all persistence models, creating or altering tables as needed.`,
		RunE:  runUp,
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show table status",
		Long:  `Display which tables exist for the configured database.`,
		RunE:  runStatus,
	}
}

func initEnv() (logger.Interface, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return log, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("applying database schema", "environment", env)

	if err := migration.Run(database.Get(), log); err != nil {
		log.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("checking table status", "environment", env)

	status, err := migration.Status(database.Get())
	if err != nil {
		log.Errorw("failed to get table status", "error", err)
		return fmt.Errorf("failed to get table status: %w", err)
	}

	fmt.Printf("\nTable Status (%s):\n", env)
	for table, ok := range status {
		state := "missing"
		if ok {
			state = "present"
		}
		fmt.Printf("  %-24s %s\n", table, state)
	}

	return nil
}
