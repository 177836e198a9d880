package cli

import (
	"fmt"

	"github.com/me/dfanalyzer/internal/store"
	"github.com/spf13/cobra"
)

func openStore(cmd *cobra.Command, dbPath string) (*store.SQLiteStore, error) {
	if dbPath != "" {
		cfg.Capture.DBPath = dbPath
	}
	path, err := cfg.Capture.ResolveDBPath()
	if err != nil {
		return nil, err
	}
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Debug("database ready", "path", path)
	return st, nil
}

func newDocumentsCmd() *cobra.Command {
	var (
		dbPath string
		f      store.Filter
		kind   string
		full   bool
	)

	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List documents recorded by the capture server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Kind = store.Kind(kind)
			if f.Kind != "" && f.Kind != store.KindTask && f.Kind != store.KindDataflow {
				return fmt.Errorf("--kind must be %q or %q", store.KindTask, store.KindDataflow)
			}

			st, err := openStore(cmd, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			docs, err := st.List(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("list documents: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "No documents found.")
				return nil
			}
			if full {
				for _, d := range docs {
					fmt.Fprintf(out, "%s %s\n", d.ID, d.Body)
				}
				return nil
			}

			fmt.Fprintf(out, "%-40s  %-8s  %-16s  %-16s  %-8s  %-9s  %s\n", "ID", "KIND", "DATAFLOW", "TRANSFORMATION", "TASK", "STATUS", "RECEIVED")
			fmt.Fprintf(out, "%-40s  %-8s  %-16s  %-16s  %-8s  %-9s  %s\n", "----", "----", "--------", "--------------", "----", "------", "--------")
			for _, d := range docs {
				fmt.Fprintf(out, "%-40s  %-8s  %-16s  %-16s  %-8s  %-9s  %s\n",
					d.ID, d.Kind, d.Dataflow, d.Transformation, d.TaskID, d.Status,
					d.ReceivedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Capture database path (default ~/.dfa/capture.db or DFA_CAPTURE_DB)")
	cmd.Flags().StringVar(&kind, "kind", "", "Only show task or dataflow documents")
	cmd.Flags().StringVar(&f.Dataflow, "dataflow", "", "Only show documents of this dataflow")
	cmd.Flags().StringVar(&f.TaskID, "task", "", "Only show documents of this task id")
	cmd.Flags().IntVar(&f.Limit, "limit", 100, "Maximum number of documents")
	cmd.Flags().BoolVar(&full, "full", false, "Print the raw JSON body of each document")
	return cmd
}
