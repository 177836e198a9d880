package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/me/dfanalyzer/internal/logging"
	"github.com/me/dfanalyzer/pkg/provenance"
	"github.com/spf13/cobra"
)

// parseValue turns a command line value into a number when it looks like one.
// NaN and infinities stay text since JSON cannot carry them.
func parseValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

func parseValues(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = parseValue(s)
	}
	return out
}

// parseDependency converts "tag:id" pairs into a Dependency.
func parseDependency(pairs []string) (provenance.Dependency, error) {
	tags := make([]string, 0, len(pairs))
	ids := make([]string, 0, len(pairs))
	for _, p := range pairs {
		tag, id, ok := strings.Cut(p, ":")
		if !ok {
			return provenance.Dependency{}, fmt.Errorf("--depends-on %q: want <transformation>:<task id>", p)
		}
		tags = append(tags, tag)
		ids = append(ids, id)
	}
	return provenance.NewDependency(tags, ids)
}

func newTaskCmd() *cobra.Command {
	var (
		dataflowTag    string
		transformation string
		taskID         string
		subID          string
		workspace      string
		resource       string
		inValues       []string
		outValues      []string
		dependsOn      []string
	)

	cmd := &cobra.Command{
		Use:   "task",
		Short: "Report one finished task execution",
		Long: "Report a task that an external program ran: the task is begun with its input values " +
			"and ended with its output values, sending one document per transition.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []provenance.TaskOption{
				provenance.WithSubID(subID),
				provenance.WithWorkspace(workspace),
				provenance.WithResource(resource),
			}
			if len(dependsOn) > 0 {
				dep, err := parseDependency(dependsOn)
				if err != nil {
					return err
				}
				opts = append(opts, provenance.WithDependency(dep))
			}

			ctx := cmd.Context()
			task, _, err := provenance.StartTask(ctx, sender, taskID, dataflowTag, transformation, parseValues(inValues), opts...)
			if task == nil {
				return err
			}
			log := logging.WithTask(logger, task.Specification())
			if err != nil {
				return err
			}
			log.Debug("task begun", "start", task.StartTime())

			if _, err := provenance.EndTask(ctx, task, transformation, parseValues(outValues)); err != nil {
				return err
			}
			log.Debug("task ended", "end", task.EndTime())

			fmt.Fprintf(cmd.OutOrStdout(), "Task %s (%s/%s) %s\n",
				task.ID(), task.DataflowTag(), task.TransformationTag(), task.Status())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataflowTag, "dataflow", "", "Dataflow tag (required)")
	f.StringVar(&transformation, "transformation", "", "Transformation tag (required)")
	f.StringVar(&taskID, "id", "", "Task id (required)")
	f.StringVar(&subID, "sub-id", "", "Task sub id")
	f.StringVar(&workspace, "workspace", "", "Directory the task ran in")
	f.StringVar(&resource, "resource", "", "Resource the task ran on")
	f.StringSliceVar(&inValues, "in", nil, "Input values, one element each")
	f.StringSliceVar(&outValues, "out", nil, "Output values, one element each")
	f.StringSliceVar(&dependsOn, "depends-on", nil, "Prior task as <transformation>:<task id> (repeatable)")
	cmd.MarkFlagRequired("dataflow")
	cmd.MarkFlagRequired("transformation")
	cmd.MarkFlagRequired("id")

	return cmd
}
