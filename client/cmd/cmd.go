package cmd

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/goto/batchboard/client/cmd/plan"
	"github.com/goto/batchboard/client/cmd/version"
)

// New constructs the 'root' command. Server side commands are attached by main.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batchboard <command> <subcommand> [flags]",
		Short: "Set up batch jobs and the offsets they start at",
		Long: heredoc.Doc(`
			Batchboard keeps the jobs of every batch event together with the
			offset each job starts at, derived from the average duration of
			the jobs it waits for.
		`),
		SilenceUsage:  true,
		SilenceErrors: false,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Example: heredoc.Doc(`
			$ batchboard serve -c config.yaml
			$ batchboard migration up -c config.yaml
			$ batchboard plan -f nightly.yaml
		`),
	}

	cmd.AddCommand(
		plan.NewPlanCommand(),
		version.NewVersionCommand(),
	)
	return cmd
}
