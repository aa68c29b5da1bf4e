package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pneff/databorg-client/internal/catalog"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	Dir string
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the query catalog",
	}
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "catalog directory (default from config)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List catalog queries",
		Long: `Load and validate the catalog, then list its queries.

Example:
  databorg catalog list
  databorg catalog list --dir ./queries --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCatalog(opts, cmd)
		},
	}
	cmd.AddCommand(list)

	return cmd
}

func listCatalog(opts *CatalogOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	dir := opts.Dir
	if dir == "" {
		cfg, _, err := loadConfig(opts.RootOptions)
		if err != nil {
			return fail(f, "configuration error", err)
		}
		dir = cfg.Catalog.Path
	}
	if dir == "" {
		return fail(f, "configuration error", NewExitError(ExitCommandError, "no catalog configured"))
	}

	cat, err := catalog.Load(dir)
	if err != nil {
		return fail(f, "failed to load catalog", err)
	}
	return f.Success(catalogView{cat.Queries})
}

type catalogView struct {
	Queries []catalog.Query `json:"queries"`
}

func (v catalogView) Text(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tVARIABLES\tDESCRIPTION")
	for _, q := range v.Queries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", q.Name, q.Kind, strings.Join(slices.Sorted(maps.Keys(q.Variables)), ","), q.Description)
	}
	return tw.Flush()
}
