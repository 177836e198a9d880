package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/me/dfanalyzer/internal/schema"
	"github.com/me/dfanalyzer/pkg/provenance"
	"github.com/spf13/cobra"
)

func loadDataflow(path string) (*provenance.Dataflow, error) {
	logger.Debug("loading declaration", "path", path)
	decl, err := schema.Load(path)
	if err != nil {
		return nil, err
	}
	return decl.Build()
}

// printDataflow writes a one-line-per-set summary of df.
func printDataflow(w io.Writer, df *provenance.Dataflow) {
	fmt.Fprintf(w, "Dataflow: %s\n", df.Tag())
	for _, tf := range df.Transformations() {
		fmt.Fprintf(w, "  %s\n", tf.Tag())
		for _, s := range tf.Sets() {
			var cols []string
			for _, a := range s.Attributes() {
				cols = append(cols, a.Name+":"+a.Type.String())
			}
			fmt.Fprintf(w, "    %-6s %-20s %s\n", s.Type(), s.Tag(), strings.Join(cols, ", "))
		}
	}
}

// printExtractorFiles lists the raw-data files each extractor matches under root.
// A set spliced into several transformations is listed once.
func printExtractorFiles(w io.Writer, df *provenance.Dataflow, root string) error {
	seen := make(map[string]bool)
	for _, tf := range df.Transformations() {
		for _, s := range tf.Sets() {
			for _, x := range s.Extractors() {
				key := s.Tag() + "/" + x.Tag()
				if seen[key] {
					continue
				}
				seen[key] = true
				files, err := x.ResolveFiles(root)
				if err != nil {
					return fmt.Errorf("set %s: %w", s.Tag(), err)
				}
				fmt.Fprintf(w, "Extractor %s (%s): %d files\n", x.Tag(), s.Tag(), len(files))
				for _, f := range files {
					fmt.Fprintf(w, "    %s\n", f)
				}
			}
		}
	}
	return nil
}

func newValidateCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "validate <dataflow.yaml>",
		Short: "Check a dataflow declaration without sending it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			df, err := loadDataflow(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printDataflow(out, df)
			if root != "" {
				if err := printExtractorFiles(out, df, root); err != nil {
					return err
				}
			}
			fmt.Fprintln(out, "Declaration is valid.")
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Resolve extractor file patterns under this directory")
	return cmd
}

func newDataflowCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "dataflow <dataflow.yaml>",
		Short: "Send a dataflow declaration to the provenance store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			df, err := loadDataflow(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				printDataflow(out, df)
				fmt.Fprintln(out, "Dry-run: nothing sent.")
				return nil
			}
			if err := df.Save(cmd.Context(), sender); err != nil {
				return err
			}
			fmt.Fprintf(out, "Dataflow %s sent to %s (%d transformations)\n",
				df.Tag(), sender.BaseURL(), len(df.Transformations()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the dataflow instead of sending it")
	return cmd
}
