package substitute

import (
	"sort"

	"github.com/pneff/databorg-client/sparql"
)

// Substitute returns a copy of doc in which every placeholder named in vars
// is replaced. doc itself is never modified, so one parsed template can be
// substituted repeatedly and concurrently.
//
// Positions visited, in order:
//  1. CONSTRUCT template triples
//  2. WHERE patterns
//  3. for each update operation: its target graph, LOAD/ADD/MOVE/COPY
//     source and destination graphs, then its WHERE, DELETE and INSERT
//     patterns
//
// Within a pattern every applicable branch runs: a nested SELECT is
// substituted as a whole document with the same vars, a GRAPH name is
// replaced, BIND expressions are walked (FILTER expressions are not),
// triples are replaced slot by slot and child patterns are visited.
func Substitute(doc sparql.Document, vars Variables) sparql.Document {
	if doc == nil {
		return nil
	}
	out := doc.CloneDocument()
	InPlace(out, vars)
	return out
}

// InPlace is like Substitute but mutates doc. Use it only on a tree the
// caller holds exclusively.
func InPlace(doc sparql.Document, vars Variables) {
	if doc == nil || len(vars) == 0 {
		return
	}
	r := newReplacer(vars)
	switch d := doc.(type) {
	case *sparql.Query:
		r.query(d)
	case *sparql.Update:
		r.update(d)
	}
}

func newReplacer(vars Variables) *replacer {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &replacer{vars: vars, keys: keys}
}

func (r *replacer) query(q *sparql.Query) {
	if q == nil {
		return
	}
	r.triples(q.Template)
	r.patterns(q.Where)
}

func (r *replacer) update(u *sparql.Update) {
	for _, op := range u.Operations {
		if op == nil {
			continue
		}
		for _, g := range []*sparql.GraphTarget{op.Graph, op.Source, op.Destination} {
			if g.HasName() {
				r.term(&g.Name)
			}
		}
		r.patterns(op.Where)
		r.patterns(op.Delete)
		r.patterns(op.Insert)
	}
}

func (r *replacer) patterns(ps []*sparql.Pattern) {
	for _, p := range ps {
		r.pattern(p)
	}
}

func (r *replacer) pattern(p *sparql.Pattern) {
	if p == nil {
		return
	}
	if p.IsSubQuery() {
		r.query(p.Query)
	}
	if p.HasName() {
		r.term(p.Name)
	}
	if p.HasExpression() {
		r.expression(p.Expression)
	}
	if p.HasTriples() {
		r.triples(p.Triples)
	}
	if p.HasPatterns() {
		r.patterns(p.Patterns)
	}
}
