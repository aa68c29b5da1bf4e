package substitute

import "github.com/pneff/databorg-client/sparql"

// Term replaces *term with the resolution of value if term is the
// placeholder called name. It reports whether a replacement happened. A nil
// term is left alone.
func Term(term *sparql.Term, name string, value any) bool {
	if term == nil || !term.IsPlaceholder(name) {
		return false
	}
	*term = Resolve(value)
	return true
}

// replacer applies one Variables map, in a fixed key order, to term slots.
type replacer struct {
	vars Variables
	keys []string
}

// term applies every key to the slot before the caller moves on.
func (r *replacer) term(t *sparql.Term) {
	for _, k := range r.keys {
		Term(t, k, r.vars[k])
	}
}

func (r *replacer) triple(t *sparql.Triple) {
	r.term(&t.Subject)
	if t.Path == nil {
		r.term(&t.Predicate)
	} else {
		r.path(t.Path)
	}
	r.term(&t.Object)
}

// path substitutes the link IRIs of a property path at any depth.
func (r *replacer) path(p *sparql.Path) {
	if p == nil {
		return
	}
	if p.Type == sparql.PathLink {
		r.term(&p.Link)
		return
	}
	for _, item := range p.Items {
		r.path(item)
	}
}

func (r *replacer) triples(ts []sparql.Triple) {
	for i := range ts {
		r.triple(&ts[i])
	}
}

// expression substitutes every term reachable through operator and
// function arguments, and recurses into EXISTS groups.
func (r *replacer) expression(e *sparql.Expression) {
	if e == nil {
		return
	}
	switch e.Type {
	case sparql.TermExpression:
		r.term(&e.Term)
	default:
		for _, arg := range e.Args {
			r.expression(arg)
		}
		if e.Pattern != nil {
			r.pattern(e.Pattern)
		}
	}
}
