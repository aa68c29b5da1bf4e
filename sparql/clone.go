package sparql

// Clone returns a deep copy of q.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	c := *q
	c.Prefixes = append([]Prefix(nil), q.Prefixes...)
	c.Variables = cloneProjections(q.Variables)
	c.Template = cloneTriples(q.Template)
	c.From = q.From.Clone()
	c.Where = clonePatterns(q.Where)
	if q.Group != nil {
		c.Group = make([]Grouping, len(q.Group))
		for i, g := range q.Group {
			c.Group[i] = Grouping{Expression: g.Expression.Clone(), Variable: cloneTermPtr(g.Variable)}
		}
	}
	c.Having = cloneExpressions(q.Having)
	if q.Order != nil {
		c.Order = make([]Ordering, len(q.Order))
		for i, o := range q.Order {
			c.Order[i] = Ordering{Expression: o.Expression.Clone(), Descending: o.Descending}
		}
	}
	c.Limit = cloneIntPtr(q.Limit)
	c.Offset = cloneIntPtr(q.Offset)
	c.Values = q.Values.Clone()
	return &c
}

// Clone returns a deep copy of u.
func (u *Update) Clone() *Update {
	if u == nil {
		return nil
	}
	c := *u
	c.Prefixes = append([]Prefix(nil), u.Prefixes...)
	if u.Operations != nil {
		c.Operations = make([]*Operation, len(u.Operations))
		for i, op := range u.Operations {
			c.Operations[i] = op.Clone()
		}
	}
	return &c
}

// Clone returns a deep copy of op.
func (op *Operation) Clone() *Operation {
	if op == nil {
		return nil
	}
	c := *op
	c.Graph = op.Graph.Clone()
	c.Source = op.Source.Clone()
	c.Destination = op.Destination.Clone()
	c.Delete = clonePatterns(op.Delete)
	c.Insert = clonePatterns(op.Insert)
	c.Using = op.Using.Clone()
	c.Where = clonePatterns(op.Where)
	return &c
}

// Clone returns a copy of g.
func (g *GraphTarget) Clone() *GraphTarget {
	if g == nil {
		return nil
	}
	c := *g
	return &c
}

// Clone returns a deep copy of d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	return &Dataset{
		Default: append([]Term(nil), d.Default...),
		Named:   append([]Term(nil), d.Named...),
	}
}

// Clone returns a deep copy of v.
func (v *Values) Clone() *Values {
	if v == nil {
		return nil
	}
	c := &Values{Variables: append([]Term(nil), v.Variables...)}
	if v.Rows != nil {
		c.Rows = make([][]*Term, len(v.Rows))
		for i, row := range v.Rows {
			c.Rows[i] = make([]*Term, len(row))
			for j, cell := range row {
				c.Rows[i][j] = cloneTermPtr(cell)
			}
		}
	}
	return c
}

// Clone returns a deep copy of p.
func (p *Pattern) Clone() *Pattern {
	if p == nil {
		return nil
	}
	c := *p
	c.Triples = cloneTriples(p.Triples)
	c.Patterns = clonePatterns(p.Patterns)
	c.Name = cloneTermPtr(p.Name)
	c.Expression = p.Expression.Clone()
	c.Variable = cloneTermPtr(p.Variable)
	c.Values = p.Values.Clone()
	c.Query = p.Query.Clone()
	return &c
}

// Clone returns a deep copy of e.
func (e *Expression) Clone() *Expression {
	if e == nil {
		return nil
	}
	c := *e
	if e.Separator != nil {
		sep := *e.Separator
		c.Separator = &sep
	}
	c.Args = cloneExpressions(e.Args)
	c.Pattern = e.Pattern.Clone()
	return &c
}

// Clone returns a deep copy of p.
func (p *Path) Clone() *Path {
	if p == nil {
		return nil
	}
	c := *p
	if p.Items != nil {
		c.Items = make([]*Path, len(p.Items))
		for i, item := range p.Items {
			c.Items[i] = item.Clone()
		}
	}
	return &c
}

func cloneTriples(ts []Triple) []Triple {
	if ts == nil {
		return nil
	}
	out := make([]Triple, len(ts))
	for i, t := range ts {
		out[i] = t
		out[i].Path = t.Path.Clone()
	}
	return out
}

func clonePatterns(ps []*Pattern) []*Pattern {
	if ps == nil {
		return nil
	}
	out := make([]*Pattern, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

func cloneExpressions(es []*Expression) []*Expression {
	if es == nil {
		return nil
	}
	out := make([]*Expression, len(es))
	for i, e := range es {
		out[i] = e.Clone()
	}
	return out
}

func cloneProjections(ps []Projection) []Projection {
	if ps == nil {
		return nil
	}
	out := make([]Projection, len(ps))
	for i, p := range ps {
		out[i] = Projection{Variable: p.Variable, Expression: p.Expression.Clone()}
	}
	return out
}

func cloneTermPtr(t *Term) *Term {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneIntPtr(n *int) *int {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}
