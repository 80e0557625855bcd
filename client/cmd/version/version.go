package version

import (
	"github.com/goto/salt/log"
	"github.com/goto/salt/version"
	"github.com/spf13/cobra"

	"github.com/goto/batchboard/client/cmd/internal/logger"
	"github.com/goto/batchboard/config"
)

const githubRepo = "goto/batchboard"

type versionCommand struct {
	logger log.Logger

	checkUpdate bool
}

// NewVersionCommand initializes command to get version
func NewVersionCommand() *cobra.Command {
	v := &versionCommand{
		logger: logger.NewClientLogger(),
	}

	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Print the client version information",
		Example: "batchboard version [--check-update]",
		RunE:    v.RunE,
	}
	cmd.Flags().BoolVar(&v.checkUpdate, "check-update", v.checkUpdate, "Check github for a newer release")
	return cmd
}

func (v *versionCommand) RunE(cmd *cobra.Command, _ []string) error {
	cmd.Printf("batchboard %s", config.BuildVersion)
	if config.BuildCommit != "" {
		cmd.Printf(" (%s, %s)", config.BuildCommit, config.BuildDate)
	}
	cmd.Println()

	if v.checkUpdate {
		if updateNotice := version.UpdateNotice(config.BuildVersion, githubRepo); updateNotice != "" {
			v.logger.Info(updateNotice)
		}
	}
	return nil
}
