package sparql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Generator renders a Document as SPARQL text. The zero value is ready to
// use and holds no state between calls.
//
// Output layout: one prologue line per used prefix, query clauses on
// separate lines, every group on a single line and update operations joined
// by ";\n".
type Generator struct{}

// DefaultGenerator is the process-wide generator.
var DefaultGenerator = Generator{}

// Generate renders doc with DefaultGenerator.
func Generate(doc Document) (string, error) {
	return DefaultGenerator.Generate(doc)
}

// Generate renders doc as query or update text.
func (Generator) Generate(doc Document) (string, error) {
	if doc == nil {
		return "", &GenerateError{Message: "nil document"}
	}
	base, prefixes := doc.Declarations()
	w := &writer{prefixes: prefixes, used: make(map[string]bool)}

	var body string
	switch d := doc.(type) {
	case *Query:
		body = w.query(d, "\n")
	case *Update:
		body = w.update(d)
	}
	if w.err != nil {
		return "", w.err
	}

	var b strings.Builder
	if base != "" {
		fmt.Fprintf(&b, "BASE <%s>\n", base)
	}
	for _, p := range prefixes {
		if w.used[p.Name] {
			fmt.Fprintf(&b, "PREFIX %s: <%s>\n", p.Name, p.IRI)
		}
	}
	b.WriteString(body)
	return b.String(), nil
}

// writer accumulates the prefixes a rendering uses. The first error sticks
// and later output is discarded by Generate.
type writer struct {
	prefixes []Prefix
	used     map[string]bool
	err      error
}

func (w *writer) fail(format string, args ...any) string {
	if w.err == nil {
		w.err = &GenerateError{Message: fmt.Sprintf(format, args...)}
	}
	return ""
}

func (w *writer) query(q *Query, sep string) string {
	var clauses []string
	switch q.QueryType {
	case SelectQuery:
		head := "SELECT"
		if q.Distinct {
			head += " DISTINCT"
		} else if q.Reduced {
			head += " REDUCED"
		}
		if q.Wildcard || len(q.Variables) == 0 {
			head += " *"
		} else {
			head += " " + w.projections(q.Variables)
		}
		clauses = append(clauses, head)
	case ConstructQuery:
		clauses = append(clauses, "CONSTRUCT "+w.block(w.triples(q.Template)))
	case AskQuery:
		clauses = append(clauses, "ASK")
	case DescribeQuery:
		if q.Wildcard || len(q.Variables) == 0 {
			clauses = append(clauses, "DESCRIBE *")
		} else {
			clauses = append(clauses, "DESCRIBE "+w.projections(q.Variables))
		}
	default:
		return w.fail("unknown query type %q", q.QueryType)
	}

	if q.From != nil {
		for _, g := range q.From.Default {
			clauses = append(clauses, "FROM "+w.term(g))
		}
		for _, g := range q.From.Named {
			clauses = append(clauses, "FROM NAMED "+w.term(g))
		}
	}
	if q.Where != nil || q.QueryType != DescribeQuery {
		clauses = append(clauses, "WHERE "+w.group(q.Where))
	}
	if len(q.Group) > 0 {
		parts := make([]string, len(q.Group))
		for i, g := range q.Group {
			parts[i] = w.groupCondition(g)
		}
		clauses = append(clauses, "GROUP BY "+strings.Join(parts, " "))
	}
	if len(q.Having) > 0 {
		parts := make([]string, len(q.Having))
		for i, h := range q.Having {
			parts[i] = "(" + w.expr(h, true) + ")"
		}
		clauses = append(clauses, "HAVING "+strings.Join(parts, " "))
	}
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			switch {
			case o.Descending:
				parts[i] = "DESC(" + w.expr(o.Expression, true) + ")"
			case o.Expression != nil && o.Expression.Type == TermExpression:
				parts[i] = w.expr(o.Expression, true)
			default:
				parts[i] = "ASC(" + w.expr(o.Expression, true) + ")"
			}
		}
		clauses = append(clauses, "ORDER BY "+strings.Join(parts, " "))
	}
	if q.Limit != nil {
		clauses = append(clauses, "LIMIT "+strconv.Itoa(*q.Limit))
	}
	if q.Offset != nil {
		clauses = append(clauses, "OFFSET "+strconv.Itoa(*q.Offset))
	}
	if q.Values != nil {
		clauses = append(clauses, w.values(q.Values))
	}
	return strings.Join(clauses, sep)
}

func (w *writer) projections(ps []Projection) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		if p.Expression != nil {
			parts[i] = "(" + w.expr(p.Expression, true) + " AS " + w.term(p.Variable) + ")"
		} else {
			parts[i] = w.term(p.Variable)
		}
	}
	return strings.Join(parts, " ")
}

func (w *writer) groupCondition(g Grouping) string {
	e := g.Expression
	switch {
	case g.Variable != nil:
		return "(" + w.expr(e, true) + " AS " + w.term(*g.Variable) + ")"
	case e != nil && e.Type == TermExpression:
		return w.expr(e, true)
	case e != nil && e.Type == OperationExpression && builtins[e.Operator]:
		return w.expr(e, true)
	case e != nil && e.Type == FunctionExpression:
		return w.expr(e, true)
	default:
		return "(" + w.expr(e, true) + ")"
	}
}

func (w *writer) update(u *Update) string {
	ops := make([]string, len(u.Operations))
	for i, op := range u.Operations {
		ops[i] = w.operation(op)
	}
	return strings.Join(ops, ";\n")
}

func (w *writer) operation(op *Operation) string {
	if op == nil {
		return w.fail("nil update operation")
	}
	silent := ""
	if op.Silent {
		silent = " SILENT"
	}
	switch op.Type {
	case InsertDataUpdate:
		return "INSERT DATA " + w.group(op.Insert)
	case DeleteDataUpdate:
		return "DELETE DATA " + w.group(op.Delete)
	case DeleteWhereUpdate:
		return "DELETE WHERE " + w.group(op.Delete)
	case ModifyUpdate:
		var parts []string
		if op.Graph.HasName() {
			parts = append(parts, "WITH "+w.term(op.Graph.Name))
		}
		if op.Delete != nil {
			parts = append(parts, "DELETE "+w.group(op.Delete))
		}
		if op.Insert != nil {
			parts = append(parts, "INSERT "+w.group(op.Insert))
		}
		if op.Using != nil {
			for _, g := range op.Using.Default {
				parts = append(parts, "USING "+w.term(g))
			}
			for _, g := range op.Using.Named {
				parts = append(parts, "USING NAMED "+w.term(g))
			}
		}
		parts = append(parts, "WHERE "+w.group(op.Where))
		return strings.Join(parts, " ")
	case LoadUpdate:
		if !op.Source.HasName() {
			return w.fail("LOAD without source IRI")
		}
		s := "LOAD" + silent + " " + w.term(op.Source.Name)
		if op.Destination.HasName() {
			s += " INTO GRAPH " + w.term(op.Destination.Name)
		}
		return s
	case ClearUpdate, DropUpdate:
		return strings.ToUpper(string(op.Type)) + silent + " " + w.graphTarget(op.Graph, true)
	case CreateUpdate:
		if !op.Graph.HasName() {
			return w.fail("CREATE without graph IRI")
		}
		return "CREATE" + silent + " " + w.graphTarget(op.Graph, true)
	case AddUpdate, MoveUpdate, CopyUpdate:
		return strings.ToUpper(string(op.Type)) + silent + " " +
			w.graphTarget(op.Source, false) + " TO " + w.graphTarget(op.Destination, false)
	default:
		return w.fail("unknown update type %q", op.Type)
	}
}

// graphTarget renders GraphRefAll (keyword GRAPH before IRIs) or
// GraphOrDefault (bare IRIs).
func (w *writer) graphTarget(g *GraphTarget, graphKeyword bool) string {
	if g == nil {
		return w.fail("missing graph target")
	}
	switch g.Kind {
	case NamedGraphTarget:
		if graphKeyword {
			return "GRAPH " + w.term(g.Name)
		}
		return w.term(g.Name)
	case DefaultGraphTarget:
		return "DEFAULT"
	case AllNamedTarget:
		return "NAMED"
	case AllGraphsTarget:
		return "ALL"
	default:
		return w.fail("unknown graph target %q", g.Kind)
	}
}

func (w *writer) block(items []string) string {
	if len(items) == 0 {
		return "{ }"
	}
	return "{ " + strings.Join(items, " ") + " }"
}

func (w *writer) group(ps []*Pattern) string {
	if len(ps) == 1 && ps[0] != nil && ps[0].IsSubQuery() {
		return "{ " + w.query(ps[0].Query, " ") + " }"
	}
	var items []string
	for _, p := range ps {
		items = append(items, w.pattern(p)...)
	}
	return w.block(items)
}

// pattern renders p as one or more group items.
func (w *writer) pattern(p *Pattern) []string {
	if p == nil {
		return []string{w.fail("nil pattern")}
	}
	switch p.Type {
	case BGPPattern:
		return w.triples(p.Triples)
	case GroupPattern:
		return []string{w.group(p.Patterns)}
	case OptionalPattern:
		return []string{"OPTIONAL " + w.group(p.Patterns)}
	case MinusPattern:
		return []string{"MINUS " + w.group(p.Patterns)}
	case UnionPattern:
		members := make([]string, len(p.Patterns))
		for i, m := range p.Patterns {
			if m != nil && m.Type == GroupPattern {
				members[i] = w.group(m.Patterns)
			} else {
				members[i] = w.group([]*Pattern{m})
			}
		}
		return []string{strings.Join(members, " UNION ")}
	case GraphPattern:
		if p.Name == nil {
			return []string{w.fail("GRAPH pattern without name")}
		}
		items := w.triples(p.Triples)
		for _, child := range p.Patterns {
			items = append(items, w.pattern(child)...)
		}
		return []string{"GRAPH " + w.term(*p.Name) + " " + w.block(items)}
	case ServicePattern:
		if p.Name == nil {
			return []string{w.fail("SERVICE pattern without name")}
		}
		s := "SERVICE "
		if p.Silent {
			s += "SILENT "
		}
		return []string{s + w.term(*p.Name) + " " + w.group(p.Patterns)}
	case FilterPattern:
		return []string{"FILTER(" + w.expr(p.Expression, true) + ")"}
	case BindPattern:
		if p.Variable == nil {
			return []string{w.fail("BIND without variable")}
		}
		return []string{"BIND(" + w.expr(p.Expression, true) + " AS " + w.term(*p.Variable) + ")"}
	case ValuesPattern:
		return []string{w.values(p.Values)}
	case QueryPattern:
		if p.Query == nil {
			return []string{w.fail("query pattern without query")}
		}
		return []string{"{ " + w.query(p.Query, " ") + " }"}
	default:
		return []string{w.fail("unknown pattern type %q", p.Type)}
	}
}

func (w *writer) triples(ts []Triple) []string {
	items := make([]string, len(ts))
	for i, t := range ts {
		items[i] = w.triple(t)
	}
	return items
}

func (w *writer) triple(t Triple) string {
	var pred string
	switch {
	case t.Path != nil:
		pred = w.path(t.Path)
	case t.Predicate.Type == NamedNodeTerm && t.Predicate.Value == RDFType:
		pred = "a"
	default:
		pred = w.term(t.Predicate)
	}
	return w.term(t.Subject) + " " + pred + " " + w.term(t.Object) + "."
}

func (w *writer) path(p *Path) string {
	if p == nil {
		return w.fail("nil path")
	}
	switch p.Type {
	case PathLink:
		if p.Link.Type == NamedNodeTerm && p.Link.Value == RDFType {
			return "a"
		}
		return w.term(p.Link)
	case PathSequence, PathAlternative:
		parts := make([]string, len(p.Items))
		for i, item := range p.Items {
			parts[i] = w.pathOperand(item, item.Type == PathSequence || item.Type == PathAlternative)
		}
		return strings.Join(parts, string(p.Type))
	case PathInverse:
		if len(p.Items) != 1 {
			return w.fail("inverse path needs one item")
		}
		item := p.Items[0]
		return "^" + w.pathOperand(item, item.Type == PathSequence || item.Type == PathAlternative || item.Type == PathInverse)
	case PathZeroOrMore, PathOneOrMore, PathZeroOrOne:
		if len(p.Items) != 1 {
			return w.fail("path modifier needs one item")
		}
		item := p.Items[0]
		return w.pathOperand(item, item.Type != PathLink && item.Type != PathNegated) + string(p.Type)
	case PathNegated:
		parts := make([]string, len(p.Items))
		for i, item := range p.Items {
			parts[i] = w.path(item)
		}
		if len(parts) == 1 {
			return "!" + parts[0]
		}
		return "!(" + strings.Join(parts, "|") + ")"
	default:
		return w.fail("unknown path type %q", p.Type)
	}
}

func (w *writer) pathOperand(p *Path, wrap bool) string {
	s := w.path(p)
	if wrap {
		return "(" + s + ")"
	}
	return s
}

func (w *writer) values(v *Values) string {
	if v == nil {
		return w.fail("nil VALUES block")
	}
	cell := func(t *Term) string {
		if t == nil {
			return "UNDEF"
		}
		return w.term(*t)
	}
	if len(v.Variables) == 1 {
		items := make([]string, len(v.Rows))
		for i, row := range v.Rows {
			if len(row) != 1 {
				return w.fail("VALUES row has %d values for 1 variable", len(row))
			}
			items[i] = cell(row[0])
		}
		return "VALUES " + w.term(v.Variables[0]) + " " + w.block(items)
	}
	vars := make([]string, len(v.Variables))
	for i, t := range v.Variables {
		vars[i] = w.term(t)
	}
	rows := make([]string, len(v.Rows))
	for i, row := range v.Rows {
		cells := make([]string, len(row))
		for j, t := range row {
			cells[j] = cell(t)
		}
		rows[i] = "(" + strings.Join(cells, " ") + ")"
	}
	return "VALUES (" + strings.Join(vars, " ") + ") " + w.block(rows)
}

var binaryOperators = map[string]bool{
	"||": true, "&&": true, "=": true, "!=": true, "<": true, ">": true,
	"<=": true, ">=": true, "+": true, "-": true, "*": true, "/": true,
}

// expr renders e. Binary operations are parenthesized unless top is set,
// which callers pass when the surrounding syntax already brackets the
// expression.
func (w *writer) expr(e *Expression, top bool) string {
	if e == nil {
		return w.fail("nil expression")
	}
	paren := func(s string) string {
		if top {
			return s
		}
		return "(" + s + ")"
	}
	switch e.Type {
	case TermExpression:
		return w.term(e.Term)
	case FunctionExpression:
		distinct := ""
		if e.Distinct {
			distinct = "DISTINCT "
		}
		return w.term(e.Function) + "(" + distinct + w.args(e.Args) + ")"
	case AggregateExpression:
		s := strings.ToUpper(e.Aggregation) + "("
		if e.Distinct {
			s += "DISTINCT "
		}
		if e.Wildcard {
			s += "*"
		} else {
			s += w.args(e.Args)
		}
		if e.Separator != nil {
			s += "; SEPARATOR = " + quoteString(*e.Separator)
		}
		return s + ")"
	case OperationExpression:
	default:
		return w.fail("unknown expression type %q", e.Type)
	}

	op := e.Operator
	switch {
	case binaryOperators[op]:
		if len(e.Args) != 2 {
			return w.fail("operator %q needs two arguments", op)
		}
		return paren(w.expr(e.Args[0], false) + " " + op + " " + w.expr(e.Args[1], false))
	case op == "!" || op == "u-" || op == "u+":
		if len(e.Args) != 1 {
			return w.fail("operator %q needs one argument", op)
		}
		return strings.TrimPrefix(op, "u") + w.expr(e.Args[0], false)
	case op == "in" || op == "notin":
		if len(e.Args) == 0 {
			return w.fail("operator %q needs arguments", op)
		}
		keyword := " IN "
		if op == "notin" {
			keyword = " NOT IN "
		}
		return paren(w.expr(e.Args[0], false) + keyword + "(" + w.args(e.Args[1:]) + ")")
	case op == "exists" || op == "notexists":
		if e.Pattern == nil {
			return w.fail("%s without pattern", op)
		}
		keyword := "EXISTS "
		if op == "notexists" {
			keyword = "NOT EXISTS "
		}
		if e.Pattern.Type == GroupPattern {
			return keyword + w.group(e.Pattern.Patterns)
		}
		return keyword + w.group([]*Pattern{e.Pattern})
	default:
		return strings.ToUpper(op) + "(" + w.args(e.Args) + ")"
	}
}

func (w *writer) args(es []*Expression) string {
	parts := make([]string, len(es))
	for i, a := range es {
		parts[i] = w.expr(a, true)
	}
	return strings.Join(parts, ", ")
}

var (
	integerLexical = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalLexical = regexp.MustCompile(`^[+-]?[0-9]*\.[0-9]+$`)
	doubleLexical  = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)[eE][+-]?[0-9]+$`)
	localName      = regexp.MustCompile(`^([A-Za-z0-9_]([A-Za-z0-9_.\-]*[A-Za-z0-9_\-])?)?$`)
)

func (w *writer) term(t Term) string {
	switch t.Type {
	case VariableTerm:
		return "?" + t.Value
	case BlankNodeTerm:
		return "_:" + t.Value
	case NamedNodeTerm:
		return w.iri(t.Value)
	case LiteralTerm:
		return w.literal(t)
	default:
		return w.fail("term %q has no type", t.Value)
	}
}

func (w *writer) literal(t Term) string {
	if t.Language != "" {
		return quoteString(t.Value) + "@" + t.Language
	}
	switch t.Datatype {
	case "", XSDString:
		return quoteString(t.Value)
	case XSDInteger:
		if integerLexical.MatchString(t.Value) {
			return t.Value
		}
	case XSDDecimal:
		if decimalLexical.MatchString(t.Value) {
			return t.Value
		}
	case XSDDouble:
		if doubleLexical.MatchString(t.Value) {
			return t.Value
		}
	case XSDBoolean:
		if t.Value == "true" || t.Value == "false" {
			return t.Value
		}
	}
	return quoteString(t.Value) + "^^" + w.iri(t.Datatype)
}

// iri compacts iri against the longest matching declared namespace, or
// writes it in angle brackets when none applies.
func (w *writer) iri(iri string) string {
	best := -1
	for i, p := range w.prefixes {
		if !strings.HasPrefix(iri, p.IRI) || !localName.MatchString(iri[len(p.IRI):]) {
			continue
		}
		if best < 0 || len(p.IRI) > len(w.prefixes[best].IRI) {
			best = i
		}
	}
	if best < 0 {
		return "<" + iri + ">"
	}
	p := w.prefixes[best]
	w.used[p.Name] = true
	return p.Name + ":" + iri[len(p.IRI):]
}

var stringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func quoteString(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}
