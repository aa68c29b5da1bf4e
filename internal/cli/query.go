package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	databorg "github.com/pneff/databorg-client"
	"github.com/pneff/databorg-client/exchange"
	"github.com/pneff/databorg-client/results"
	"github.com/pneff/databorg-client/sparql"
	"github.com/pneff/databorg-client/substitute"
)

// RequestOptions holds the flags shared by query, update and explain.
type RequestOptions struct {
	*RootOptions
	File       string
	Vars       []string
	IRIs       []string
	Raw        bool
	IncludeRaw bool
	Parsing    string
	FramePath  string
}

func (o *RequestOptions) bind(cmd *cobra.Command, results bool) {
	cmd.Flags().StringVarP(&o.File, "file", "f", "", "read the query text from a file")
	cmd.Flags().StringArrayVar(&o.Vars, "var", nil, "bind a placeholder to a literal (name=value, repeatable)")
	cmd.Flags().StringArrayVar(&o.IRIs, "iri", nil, "bind a placeholder to an IRI (name=iri, repeatable)")
	if !results {
		return
	}
	cmd.Flags().BoolVar(&o.Raw, "raw", false, "print the endpoint response without normalization")
	cmd.Flags().BoolVar(&o.IncludeRaw, "include-raw", false, "attach the unparsed response under _raw")
	cmd.Flags().StringVar(&o.Parsing, "parsing", "", "result shape (simple|properties)")
	cmd.Flags().StringVar(&o.FramePath, "frame", "", "JSON-LD frame file applied to graph results")
}

// request assembles a client request from args and flags.
func (o *RequestOptions) request(args []string) (databorg.Request, error) {
	text, err := o.text(args)
	if err != nil {
		return databorg.Request{}, err
	}
	vars, err := parseBindings(o.Vars, o.IRIs)
	if err != nil {
		return databorg.Request{}, err
	}

	opts := exchange.Options{
		RawResults:        o.Raw,
		IncludeRawResults: o.IncludeRaw,
		Parsing:           results.ParseOptions{Mode: results.Mode(o.Parsing)},
	}
	switch opts.Parsing.Mode {
	case "", results.ModeSimple, results.ModeProperties:
	default:
		return databorg.Request{}, &usageError{msg: fmt.Sprintf("invalid --parsing %q: must be simple or properties", o.Parsing)}
	}
	if o.FramePath != "" {
		data, err := os.ReadFile(o.FramePath)
		if err != nil {
			return databorg.Request{}, &usageError{msg: fmt.Sprintf("read frame: %v", err)}
		}
		if err := json.Unmarshal(data, &opts.Frame); err != nil {
			return databorg.Request{}, &usageError{msg: fmt.Sprintf("frame %s is not a JSON object: %v", o.FramePath, err)}
		}
	}

	return databorg.Request{Query: text, Variables: vars, Options: opts}, nil
}

func (o *RequestOptions) text(args []string) (string, error) {
	switch {
	case o.File != "" && len(args) > 0:
		return "", &usageError{msg: "give the query as an argument or with --file, not both"}
	case o.File == "-":
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	case o.File != "":
		data, err := os.ReadFile(o.File)
		if err != nil {
			return "", &usageError{msg: fmt.Sprintf("read query: %v", err)}
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", &usageError{msg: "missing query text"}
	}
}

// parseBindings turns name=value flags into placeholder values. Plain
// values become literals; --iri values become named nodes.
func parseBindings(vars, iris []string) (substitute.Variables, error) {
	out := substitute.Variables{}
	for _, kv := range vars {
		name, value, err := splitBinding("--var", kv)
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	for _, kv := range iris {
		name, value, err := splitBinding("--iri", kv)
		if err != nil {
			return nil, err
		}
		out[name] = sparql.URL(value)
	}
	return out, nil
}

func splitBinding(flag, kv string) (string, string, error) {
	name, value, ok := strings.Cut(kv, "=")
	name = strings.TrimLeft(strings.TrimSpace(name), "?")
	if !ok || name == "" {
		return "", "", &usageError{msg: fmt.Sprintf("invalid %s %q: expected name=value", flag, kv)}
	}
	return name, value, nil
}

// commandContext is cancelled on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// resultView renders an exchange result.
type resultView struct {
	*exchange.Result
}

func (v resultView) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Result)
}

// Text prints graph text as-is, booleans bare, an empty update reply as
// "ok" and everything else as indented JSON.
func (v resultView) Text(w io.Writer) error {
	switch r := v.Response.(type) {
	case nil:
		_, err := fmt.Fprintln(w, "ok")
		return err
	case string:
		_, err := fmt.Fprint(w, r)
		if err == nil && !strings.HasSuffix(r, "\n") {
			_, err = fmt.Fprintln(w)
		}
		return err
	case bool:
		_, err := fmt.Fprintln(w, r)
		return err
	}
	out, err := json.MarshalIndent(v.Response, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [sparql]",
		Short: "Run a query against the query endpoint",
		Long: `Run a SPARQL query. Placeholders are bound with --var and --iri.

Example:
  databorg query 'SELECT ?name WHERE { ?p foaf:name ?name; foaf:age ?age }' --var age=42
  databorg query -f people.rq --iri person=http://example.org/ann --parsing properties`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(opts, cmd, args, false)
		},
	}
	opts.bind(cmd, true)
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update [sparql]",
		Short: "Run an update against the update endpoint",
		Long: `Run a SPARQL update. Placeholders are bound with --var and --iri.

Example:
  databorg update 'INSERT DATA { ?s <http://xmlns.com/foaf/0.1/name> ?name }' --iri s=http://example.org/ann --var name=Ann`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(opts, cmd, args, true)
		},
	}
	opts.bind(cmd, false)
	return cmd
}

func runRequest(opts *RequestOptions, cmd *cobra.Command, args []string, update bool) error {
	f := opts.formatter(cmd)

	req, err := opts.request(args)
	if err != nil {
		return fail(f, "invalid request", err)
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return fail(f, "configuration error", err)
	}
	defer s.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	var res *exchange.Result
	if update {
		res, err = s.client.Update(ctx, req)
	} else {
		res, err = s.client.Query(ctx, req)
	}
	if err != nil {
		return fail(f, "request failed", err)
	}
	f.VerboseLog("request %s completed", res.ID)
	return f.Success(resultView{res})
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain [sparql]",
		Short: "Print the query text that would be sent",
		Long: `Substitute placeholders and print the resulting SPARQL without
contacting the endpoint.

Example:
  databorg explain 'SELECT * WHERE { ?s a ?type }' --iri type=http://schema.org/Person`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			req, err := opts.request(args)
			if err != nil {
				return fail(f, "invalid request", err)
			}
			client, err := offlineClient(opts.RootOptions)
			if err != nil {
				return fail(f, "configuration error", err)
			}
			text, err := client.Prepare(req)
			if err != nil {
				return fail(f, "invalid query", err)
			}
			return f.Success(text)
		},
	}
	opts.bind(cmd, false)
	return cmd
}

// offlineClient builds a client for rendering only. The endpoint is never
// contacted, so a missing one is not an error.
func offlineClient(opts *RootOptions) (*databorg.Client, error) {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	clientCfg := cfg.Client()
	clientCfg.Logger = logger
	if clientCfg.QueryEndpoint == "" {
		clientCfg.QueryEndpoint = "http://localhost/sparql"
	}
	return databorg.New(clientCfg)
}
