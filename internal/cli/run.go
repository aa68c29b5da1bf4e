package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pneff/databorg-client/exchange"
	"github.com/pneff/databorg-client/internal/catalog"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	All      bool
	Parallel int
	Vars     []string
	IRIs     []string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [name]",
		Short: "Run catalog queries",
		Long: `Run a named query from the catalog, or every query with --all.

Variables declared in the catalog can be overridden with --var and --iri
when running a single query. With --all each entry runs once and failures
are reported per entry.

Example:
  databorg run cities-in --iri country=http://dbpedia.org/resource/Germany
  databorg run --all --parallel 8`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "run every catalog entry")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 4, "maximum concurrent requests with --all")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "override a literal variable (name=value, repeatable)")
	cmd.Flags().StringArrayVar(&opts.IRIs, "iri", nil, "override an IRI variable (name=iri, repeatable)")

	return cmd
}

func runCatalog(opts *RunOptions, cmd *cobra.Command, args []string) error {
	f := opts.formatter(cmd)

	switch {
	case opts.All && len(args) > 0:
		return fail(f, "invalid arguments", &usageError{msg: "give a query name or --all, not both"})
	case !opts.All && len(args) == 0:
		return fail(f, "invalid arguments", &usageError{msg: "missing query name"})
	case opts.Parallel < 1:
		return fail(f, "invalid arguments", &usageError{msg: "--parallel must be at least 1"})
	}
	overrides, err := parseBindings(opts.Vars, opts.IRIs)
	if err != nil {
		return fail(f, "invalid arguments", err)
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return fail(f, "configuration error", err)
	}
	defer s.Close()

	cat, err := catalog.Load(s.cfg.Catalog.Path)
	if err != nil {
		return fail(f, "failed to load catalog", err)
	}
	f.VerboseLog("loaded %d queries from %d files", len(cat.Queries), cat.Files)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if !opts.All {
		q, ok := cat.Lookup(args[0])
		if !ok {
			return fail(f, "unknown query", NewExitError(ExitCommandError, fmt.Sprintf("%q is not in the catalog", args[0])))
		}
		q.Variables = maps.Clone(q.Variables)
		if q.Variables == nil {
			q.Variables = overrides
		} else {
			maps.Copy(q.Variables, overrides)
		}
		res, err := execute(ctx, s, q)
		if err != nil {
			return fail(f, "request failed", err)
		}
		return f.Success(resultView{res})
	}

	report := runAll(ctx, s, cat.Queries, opts.Parallel)
	if err := f.Success(report); err != nil {
		return err
	}
	if n := report.Failed(); n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d queries failed", n, len(report.Runs)))
	}
	return nil
}

func execute(ctx context.Context, s *session, q catalog.Query) (*exchange.Result, error) {
	if q.Kind == catalog.KindUpdate {
		return s.client.Update(ctx, q.Request())
	}
	return s.client.Query(ctx, q.Request())
}

// RunResult is the outcome of one catalog entry.
type RunResult struct {
	Name     string        `json:"name"`
	Kind     catalog.Kind  `json:"kind"`
	ID       string        `json:"id,omitempty"`
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Response any           `json:"response,omitempty"`
}

// RunReport lists outcomes in catalog order.
type RunReport struct {
	Runs []RunResult `json:"runs"`
}

// Failed counts unsuccessful runs.
func (r RunReport) Failed() int {
	n := 0
	for _, run := range r.Runs {
		if !run.OK {
			n++
		}
	}
	return n
}

func (r RunReport) Text(w io.Writer) error {
	for _, run := range r.Runs {
		status := "ok"
		if !run.OK {
			status = "FAIL"
		}
		line := fmt.Sprintf("%-4s %-30s %s", status, run.Name, run.Duration.Round(time.Millisecond))
		if run.Error != "" {
			line += "  " + run.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d passed, %d failed\n", len(r.Runs)-r.Failed(), r.Failed())
	return err
}

// runAll runs every query with at most limit in flight. A failing entry
// does not stop the others.
func runAll(ctx context.Context, s *session, queries []catalog.Query, limit int) RunReport {
	runs := make([]RunResult, len(queries))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, q := range queries {
		g.Go(func() error {
			start := time.Now()
			res, err := execute(ctx, s, q)
			run := RunResult{Name: q.Name, Kind: q.Kind, Duration: time.Since(start)}
			if err != nil {
				run.Error = err.Error()
				s.logger.Warn("catalog query failed", "name", q.Name, "error", err)
			} else {
				run.OK = true
				run.ID = res.ID
				run.Response = res.Response
			}
			runs[i] = run
			return nil
		})
	}
	_ = g.Wait()

	return RunReport{Runs: runs}
}
