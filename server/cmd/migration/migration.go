package migration

import (
	"errors"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/goto/batchboard/config"
	"github.com/goto/batchboard/internal/store/postgres"
)

// NewMigrationCommand initializes the database migration commands
func NewMigrationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migration",
		Short: "Command to run database migrations",
		Long: heredoc.Doc(`
			Migrations are embedded in the binary. The server applies pending
			migrations on start, these commands run them on their own.
		`),
	}
	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
	)
	return cmd
}

type upCommand struct {
	configFilePath string
}

func newUpCommand() *cobra.Command {
	up := &upCommand{}
	cmd := &cobra.Command{
		Use:     "up",
		Short:   "Apply every pending migration",
		Example: "batchboard migration up -c config.yaml",
		RunE:    up.RunE,
	}
	cmd.Flags().StringVarP(&up.configFilePath, "config", "c", config.EmptyPath, "File path for server configuration")
	return cmd
}

func (u *upCommand) RunE(cmd *cobra.Command, _ []string) error {
	dsn, err := loadDSN(u.configFilePath)
	if err != nil {
		return err
	}
	if err := postgres.Migrate(dsn); err != nil {
		return err
	}
	cmd.Println("migration up finished")
	return nil
}

type downCommand struct {
	configFilePath string
	steps          int
}

func newDownCommand() *cobra.Command {
	down := &downCommand{steps: 1}
	cmd := &cobra.Command{
		Use:     "down",
		Short:   "Revert the latest migrations",
		Example: "batchboard migration down -c config.yaml --steps 1",
		RunE:    down.RunE,
	}
	cmd.Flags().StringVarP(&down.configFilePath, "config", "c", config.EmptyPath, "File path for server configuration")
	cmd.Flags().IntVar(&down.steps, "steps", down.steps, "Number of migrations to revert")
	return cmd
}

func (d *downCommand) RunE(cmd *cobra.Command, _ []string) error {
	if d.steps <= 0 {
		return errors.New("steps must be greater than zero")
	}
	dsn, err := loadDSN(d.configFilePath)
	if err != nil {
		return err
	}
	if err := postgres.Rollback(dsn, d.steps); err != nil {
		return err
	}
	cmd.Printf("migration down finished, reverted %d step(s)\n", d.steps)
	return nil
}

func loadDSN(path string) (string, error) {
	conf, err := config.LoadServerConfig(path)
	if err != nil {
		return "", err
	}
	if conf.Serve.DB.DSN == "" {
		return "", errors.New("serve.db.dsn is required")
	}
	return conf.Serve.DB.DSN, nil
}
