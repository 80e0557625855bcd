package plan

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goto/batchboard/client/cmd/internal/logger"
	lerrors "github.com/goto/batchboard/client/errors"
	"github.com/goto/batchboard/core/job"
	"github.com/goto/batchboard/core/job/planner"
	"github.com/goto/batchboard/core/job/service"
	"github.com/goto/batchboard/internal/errors"
)

// File is the yaml layout of one event read by the plan command.
type File struct {
	Event string    `yaml:"event"`
	Jobs  []JobSpec `yaml:"jobs"`
}

type JobSpec struct {
	ID            int64   `yaml:"id"`
	Name          string  `yaml:"name"`
	AvgTime       float64 `yaml:"avg_time"`
	Prerequisites string  `yaml:"prereq"`
}

type planCommand struct {
	logger log.Logger
	fs     afero.Fs

	filePath string
}

// NewPlanCommand initializes command to compute offsets of a job file without a server
func NewPlanCommand() *cobra.Command {
	return newPlanCommand(logger.NewClientLogger(), afero.NewOsFs())
}

func newPlanCommand(l log.Logger, fs afero.Fs) *cobra.Command {
	p := &planCommand{
		logger: l,
		fs:     fs,
	}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute prerequisite offsets of an event described in a yaml file",
		Long: heredoc.Doc(`
			Reads the jobs of a single event from a yaml file and prints the
			offset every job starts at, relative to the start of the event.
			A prerequisite list of "0" marks a job without prerequisites.
		`),
		Example: heredoc.Doc(`
			$ batchboard plan -f nightly.yaml
		`),
		RunE: p.RunE,
	}
	cmd.Flags().StringVarP(&p.filePath, "file", "f", "", "Path of the yaml file describing the event")
	cmd.MarkFlagRequired("file")
	return cmd
}

func (p *planCommand) RunE(cmd *cobra.Command, _ []string) error {
	raw, err := afero.ReadFile(p.fs, p.filePath)
	if err != nil {
		return lerrors.NewInputErrorf("unable to read %s: %w", p.filePath, err)
	}

	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return lerrors.NewInputErrorf("unable to parse %s: %w", p.filePath, err)
	}

	jobs, err := file.ToJobs()
	if err != nil {
		return lerrors.NewInputErrorf("%s: %w", p.filePath, err)
	}

	g, result, err := planner.Plan(jobs)
	if err != nil {
		err = service.ToDomainError(err)
		p.logger.Error("plan rejected", "event", file.Event, "err", err)
		return lerrors.NewRejectedPlanErrorf("%s", errors.UserMessage(err))
	}

	p.logger.Info("planned event", "event", file.Event, "jobs", len(jobs))
	return render(cmd.OutOrStdout(), jobs, g, result)
}

// ToJobs converts the file entries into jobs of one event. Durations are kept
// as written, the planner rejects invalid ones.
func (f File) ToJobs() (job.Jobs, error) {
	me := errors.NewMultiError("invalid jobs")
	jobs := make(job.Jobs, 0, len(f.Jobs))
	for i, spec := range f.Jobs {
		j, err := spec.toJob()
		if err != nil {
			me.Append(fmt.Errorf("entry %d: %w", i+1, err))
			continue
		}
		jobs = append(jobs, j)
	}
	if err := me.ToErr(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s JobSpec) toJob() (*job.Job, error) {
	if s.ID <= 0 {
		return nil, fmt.Errorf("job %q has invalid id %d", s.Name, s.ID)
	}
	name, err := job.NameFrom(s.Name)
	if err != nil {
		return nil, err
	}
	prerequisites, err := job.PrerequisitesFrom(s.Prerequisites)
	if err != nil {
		return nil, err
	}
	jobSpec := job.NewSpecBuilder(name, s.AvgTime, prerequisites).Restore()
	return job.NewJob(job.ID(s.ID), 0, jobSpec, 0), nil
}

func render(w io.Writer, jobs job.Jobs, g *planner.Graph, result *planner.Result) error {
	byID := jobs.ToMap()

	buff := &bytes.Buffer{}
	table := tablewriter.NewWriter(buff)
	table.SetBorder(false)
	table.SetHeader([]string{
		"ID",
		"Name",
		"Duration",
		"Prerequisites",
		"Offset",
		"Finish",
	})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, id := range result.Order {
		j := byID[id]
		table.Append([]string{
			id.String(),
			j.Spec().Name().String(),
			formatSeconds(j.AverageDuration()),
			j.Prerequisites().String(),
			formatSeconds(result.Offsets[id]),
			formatSeconds(result.Finish(g, id)),
		})
	}
	table.Render()

	_, err := w.Write(buff.Bytes())
	return err
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
