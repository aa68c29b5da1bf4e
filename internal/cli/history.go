package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pneff/databorg-client/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled requests",
		Long: `List the most recent requests recorded in the journal, newest first.

Example:
  databorg history --limit 5
  databorg history --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, cmd)
		},
	}
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of entries (0 for all)")

	return cmd
}

func showHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, _, err := loadConfig(opts.RootOptions)
	if err != nil {
		return fail(f, "configuration error", err)
	}
	if cfg.Journal.Path == "" {
		return fail(f, "configuration error", NewExitError(ExitCommandError, "journal is disabled"))
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fail(f, "failed to open journal", err)
	}
	defer j.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	entries, err := j.Recent(ctx, opts.Limit)
	if err != nil {
		return fail(f, "failed to read journal", err)
	}
	return f.Success(historyView{entries})
}

type historyView struct {
	Entries []journal.Entry `json:"entries"`
}

func (v historyView) Text(w io.Writer) error {
	if len(v.Entries) == 0 {
		_, err := fmt.Fprintln(w, "no requests recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tSTARTED\tKIND\tSTATUS\tDURATION\tID")
	for _, e := range v.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Seq, e.StartedAt.Format(time.RFC3339), e.Kind, e.Status, e.Duration, e.ID)
	}
	return tw.Flush()
}
