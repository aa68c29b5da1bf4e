// Package catalog loads named, parameterized queries from CUE files.
//
// A catalog directory holds CUE files of one package that declare queries
// under the top-level "query" field:
//
//	package queries
//
//	query: cityPopulation: {
//		description: "Population of a DBpedia city"
//		text: """
//			SELECT ?population WHERE { var:city dbo:populationTotal ?population }
//			"""
//		variables: city: iri: "http://dbpedia.org/resource/Berlin"
//		options: parsing: type: "simple"
//	}
//
// Entries are checked against an embedded schema (kind is "query" or
// "update", text is required, variables are scalars or {iri: ...} named
// nodes) before they are decoded.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	databorg "github.com/pneff/databorg-client"
	"github.com/pneff/databorg-client/exchange"
	"github.com/pneff/databorg-client/sparql"
	"github.com/pneff/databorg-client/substitute"
)

//go:embed schema.cue
var schemaCUE string

// Kind is the request kind of a catalog entry.
type Kind string

const (
	KindQuery  Kind = "query"
	KindUpdate Kind = "update"
)

// Query is one catalog entry.
type Query struct {
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        Kind                 `json:"kind" yaml:"kind"`
	Text        string               `json:"text" yaml:"text"`
	Variables   substitute.Variables `json:"variables,omitempty" yaml:"variables,omitempty"`
	Options     exchange.Options     `json:"options" yaml:"options"`
	Pos         token.Pos            `json:"-" yaml:"-"`
}

// Request converts q into a client request.
func (q Query) Request() databorg.Request {
	return databorg.Request{Query: q.Text, Variables: q.Variables, Options: q.Options}
}

// Catalog is a set of queries sorted by name.
type Catalog struct {
	Queries []Query
	Files   int
}

// Lookup finds a query by name.
func (c *Catalog) Lookup(name string) (Query, bool) {
	i := sort.Search(len(c.Queries), func(i int) bool { return c.Queries[i].Name >= name })
	if i < len(c.Queries) && c.Queries[i].Name == name {
		return c.Queries[i], true
	}
	return Query{}, false
}

// Names lists the query names in order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Queries))
	for i, q := range c.Queries {
		names[i] = q.Name
	}
	return names
}

// Load reads every CUE file in dir as one package.
func Load(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil || len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	if err := instances[0].Err; err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", err)}
	}

	ctx := cuecontext.New()
	value := ctx.BuildInstance(instances[0])
	cat, err := compile(ctx, value)
	if err != nil {
		return nil, err
	}
	cat.Files = len(files)
	return cat, nil
}

// Parse compiles a single CUE source. filename is used in positions only.
func Parse(filename, src string) (*Catalog, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	cat, err := compile(ctx, value)
	if err != nil {
		return nil, err
	}
	cat.Files = 1
	return cat, nil
}

func compile(ctx *cue.Context, value cue.Value) (*Catalog, error) {
	if err := value.Err(); err != nil {
		return nil, newLoadError(ErrCodeBuildFailed, err)
	}

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("catalog schema: %v", err)}
	}
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, newLoadError(ErrCodeSchema, err)
	}

	cat := &Catalog{}
	queries := unified.LookupPath(cue.ParsePath("query"))
	if !queries.Exists() {
		return cat, nil
	}
	iter, err := queries.Fields()
	if err != nil {
		return nil, newLoadError(ErrCodeGeneric, err)
	}
	for iter.Next() {
		q, err := compileQuery(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		cat.Queries = append(cat.Queries, q)
	}
	sort.Slice(cat.Queries, func(i, j int) bool { return cat.Queries[i].Name < cat.Queries[j].Name })
	return cat, nil
}

func compileQuery(name string, v cue.Value) (Query, error) {
	q := Query{Name: name, Pos: v.Pos()}

	kind, err := v.LookupPath(cue.ParsePath("kind")).String()
	if err != nil {
		return Query{}, newLoadError(ErrCodeSchema, err)
	}
	q.Kind = Kind(kind)

	if q.Text, err = v.LookupPath(cue.ParsePath("text")).String(); err != nil {
		return Query{}, newLoadError(ErrCodeSchema, err)
	}
	if desc := v.LookupPath(cue.ParsePath("description")); desc.Exists() {
		if q.Description, err = desc.String(); err != nil {
			return Query{}, newLoadError(ErrCodeSchema, err)
		}
	}

	if vars := v.LookupPath(cue.ParsePath("variables")); vars.Exists() {
		if q.Variables, err = compileVariables(vars); err != nil {
			return Query{}, err
		}
	}

	if opts := v.LookupPath(cue.ParsePath("options")); opts.Exists() {
		var raw map[string]any
		if err := opts.Decode(&raw); err != nil {
			return Query{}, newLoadError(ErrCodeOptions, err)
		}
		if q.Options, err = exchange.DecodeOptions(raw); err != nil {
			return Query{}, &LoadError{Code: ErrCodeOptions, Message: fmt.Sprintf("query.%s.options: %v", name, err), Pos: opts.Pos()}
		}
	}
	return q, nil
}

func compileVariables(v cue.Value) (substitute.Variables, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, newLoadError(ErrCodeSchema, err)
	}
	vars := substitute.Variables{}
	for iter.Next() {
		name, val := iter.Label(), iter.Value()
		var (
			out any
			err error
		)
		switch val.Kind() {
		case cue.StructKind:
			var iri string
			if iri, err = val.LookupPath(cue.ParsePath("iri")).String(); err == nil {
				out = sparql.URL(iri)
			}
		case cue.StringKind:
			out, err = val.String()
		case cue.BoolKind:
			out, err = val.Bool()
		case cue.IntKind:
			out, err = val.Int64()
		case cue.FloatKind, cue.NumberKind:
			out, err = val.Float64()
		case cue.NullKind:
			out = nil
		default:
			err = fmt.Errorf("unsupported variable kind %v", val.Kind())
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("variable %s: %v", name, err), Pos: val.Pos()}
		}
		vars[name] = out
	}
	return vars, nil
}
