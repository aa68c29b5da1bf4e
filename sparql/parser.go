package sparql

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Parser turns SPARQL source text into a Document. The zero value is ready
// to use and holds no state between calls.
type Parser struct{}

// DefaultParser is the process-wide parser.
var DefaultParser = Parser{}

// Parse parses src with DefaultParser.
func Parse(src string) (Document, error) {
	return DefaultParser.Parse(src)
}

// Parse parses a query or update request.
func (Parser) Parse(src string) (Document, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, prefixes: make(map[string]string)}
	return p.document()
}

// MustParse is like Parse but panics on error. It simplifies initialization
// of package-level query templates.
func MustParse(src string) Document {
	doc, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return doc
}

// parser is a recursive-descent parser over a token slice. One parser is
// used per call to Parse.
type parser struct {
	toks     []token
	pos      int
	base     string
	prefixes map[string]string
	declared []Prefix
	blanks   int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return &ParseError{Line: tok.line, Column: tok.col, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) unexpected(tok token, want string) error {
	if tok.kind == tokEOF {
		return p.errorf(tok, "expected %s, found end of input", want)
	}
	return p.errorf(tok, "expected %s, found %s %q", want, tok.kind, tok.text)
}

func isKeyword(tok token, kw string) bool {
	return tok.kind == tokKeyword && strings.EqualFold(tok.text, kw)
}

func isPunct(tok token, s string) bool {
	return tok.kind == tokPunct && tok.text == s
}

func (p *parser) atKeyword(kws ...string) bool {
	for _, kw := range kws {
		if isKeyword(p.peek(), kw) {
			return true
		}
	}
	return false
}

func (p *parser) acceptKeyword(kw string) bool {
	if isKeyword(p.peek(), kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		return p.unexpected(p.peek(), kw)
	}
	return nil
}

func (p *parser) acceptPunct(s string) bool {
	if isPunct(p.peek(), s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) error {
	if !p.acceptPunct(s) {
		return p.unexpected(p.peek(), strconv.Quote(s))
	}
	return nil
}

func (p *parser) expectEOF() error {
	if tok := p.peek(); tok.kind != tokEOF {
		return p.unexpected(tok, "end of input")
	}
	return nil
}

func (p *parser) freshBlank() Term {
	b := BlankNode(fmt.Sprintf("g_%d", p.blanks))
	p.blanks++
	return b
}

func (p *parser) document() (Document, error) {
	if err := p.prologue(); err != nil {
		return nil, err
	}
	if p.atKeyword("SELECT", "CONSTRUCT", "ASK", "DESCRIBE") {
		q, err := p.query()
		if err != nil {
			return nil, err
		}
		if err := p.expectEOF(); err != nil {
			return nil, err
		}
		q.Base, q.Prefixes = p.base, p.declared
		return q, nil
	}
	u, err := p.update()
	if err != nil {
		return nil, err
	}
	u.Base, u.Prefixes = p.base, p.declared
	return u, nil
}

func (p *parser) prologue() error {
	for {
		switch {
		case p.acceptKeyword("BASE"):
			tok := p.next()
			if tok.kind != tokIRI {
				return p.unexpected(tok, "IRI")
			}
			p.base = tok.text
		case p.acceptKeyword("PREFIX"):
			tok := p.next()
			if tok.kind != tokPName || !strings.HasSuffix(tok.text, ":") {
				return p.unexpected(tok, "prefix name")
			}
			name := strings.TrimSuffix(tok.text, ":")
			iriTok := p.next()
			if iriTok.kind != tokIRI {
				return p.unexpected(iriTok, "IRI")
			}
			p.declare(name, p.resolve(iriTok.text))
		default:
			return nil
		}
	}
}

func (p *parser) declare(name, iri string) {
	p.prefixes[name] = iri
	for i := range p.declared {
		if p.declared[i].Name == name {
			p.declared[i].IRI = iri
			return
		}
	}
	p.declared = append(p.declared, Prefix{Name: name, IRI: iri})
}

// resolve resolves a relative IRI against the BASE declaration.
func (p *parser) resolve(iri string) string {
	if p.base == "" || strings.Contains(iri, ":") {
		return iri
	}
	base, err := url.Parse(p.base)
	if err != nil {
		return iri
	}
	ref, err := url.Parse(iri)
	if err != nil {
		return iri
	}
	return base.ResolveReference(ref).String()
}

func (p *parser) iri() (Term, error) {
	tok := p.next()
	switch tok.kind {
	case tokIRI:
		return NamedNode(p.resolve(tok.text)), nil
	case tokPName:
		idx := strings.IndexByte(tok.text, ':')
		ns, ok := p.prefixes[tok.text[:idx]]
		if !ok {
			return Term{}, p.errorf(tok, "unknown prefix %q", tok.text[:idx])
		}
		return NamedNode(ns + tok.text[idx+1:]), nil
	default:
		return Term{}, p.unexpected(tok, "IRI")
	}
}

func isIRIToken(tok token) bool {
	return tok.kind == tokIRI || tok.kind == tokPName
}

func (p *parser) variable() (Term, error) {
	tok := p.next()
	if tok.kind != tokVar {
		return Term{}, p.unexpected(tok, "variable")
	}
	return Variable(tok.text), nil
}

func (p *parser) varOrIRI() (Term, error) {
	if p.peek().kind == tokVar {
		return p.variable()
	}
	return p.iri()
}

func (p *parser) query() (*Query, error) {
	var (
		q   *Query
		err error
	)
	switch strings.ToUpper(p.peek().text) {
	case "SELECT":
		q, err = p.selectQuery()
	case "CONSTRUCT":
		q, err = p.constructQuery()
	case "ASK":
		q, err = p.askQuery()
	default:
		q, err = p.describeQuery()
	}
	if err != nil {
		return nil, err
	}
	if p.acceptKeyword("VALUES") {
		if q.Values, err = p.dataBlock(); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (p *parser) selectQuery() (*Query, error) {
	q, err := p.selectClause()
	if err != nil {
		return nil, err
	}
	if err := p.datasetClauses(q); err != nil {
		return nil, err
	}
	if err := p.whereClause(q, true); err != nil {
		return nil, err
	}
	if err := p.solutionModifier(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *parser) subSelect() (*Query, error) {
	q, err := p.selectClause()
	if err != nil {
		return nil, err
	}
	if err := p.whereClause(q, true); err != nil {
		return nil, err
	}
	if err := p.solutionModifier(q); err != nil {
		return nil, err
	}
	if p.acceptKeyword("VALUES") {
		if q.Values, err = p.dataBlock(); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (p *parser) selectClause() (*Query, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	q := &Query{QueryType: SelectQuery}
	if p.acceptKeyword("DISTINCT") {
		q.Distinct = true
	} else if p.acceptKeyword("REDUCED") {
		q.Reduced = true
	}
	if p.acceptPunct("*") {
		q.Wildcard = true
		return q, nil
	}
	for {
		tok := p.peek()
		switch {
		case tok.kind == tokVar:
			p.next()
			q.Variables = append(q.Variables, Projection{Variable: Variable(tok.text)})
		case isPunct(tok, "("):
			p.next()
			expr, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expectKeyword("AS"); err != nil {
				return nil, err
			}
			v, err := p.variable()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			q.Variables = append(q.Variables, Projection{Variable: v, Expression: expr})
		default:
			if len(q.Variables) == 0 {
				return nil, p.unexpected(tok, "projection")
			}
			return q, nil
		}
	}
}

func (p *parser) constructQuery() (*Query, error) {
	p.next()
	q := &Query{QueryType: ConstructQuery}
	if isPunct(p.peek(), "{") {
		p.next()
		template, err := p.triplesTemplate()
		if err != nil {
			return nil, err
		}
		q.Template = template
		if err := p.datasetClauses(q); err != nil {
			return nil, err
		}
		if err := p.whereClause(q, true); err != nil {
			return nil, err
		}
	} else {
		// CONSTRUCT WHERE { template } short form.
		if err := p.datasetClauses(q); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("WHERE"); err != nil {
			return nil, err
		}
		if err := p.expectPunct("{"); err != nil {
			return nil, err
		}
		template, err := p.triplesTemplate()
		if err != nil {
			return nil, err
		}
		q.Template = template
		if len(template) > 0 {
			q.Where = []*Pattern{{Type: BGPPattern, Triples: cloneTriples(template)}}
		}
	}
	if err := p.solutionModifier(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *parser) askQuery() (*Query, error) {
	p.next()
	q := &Query{QueryType: AskQuery}
	if err := p.datasetClauses(q); err != nil {
		return nil, err
	}
	if err := p.whereClause(q, true); err != nil {
		return nil, err
	}
	if err := p.solutionModifier(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *parser) describeQuery() (*Query, error) {
	p.next()
	q := &Query{QueryType: DescribeQuery}
	if p.acceptPunct("*") {
		q.Wildcard = true
	} else {
		for p.peek().kind == tokVar || isIRIToken(p.peek()) {
			t, err := p.varOrIRI()
			if err != nil {
				return nil, err
			}
			q.Variables = append(q.Variables, Projection{Variable: t})
		}
		if len(q.Variables) == 0 {
			return nil, p.unexpected(p.peek(), "variable or IRI")
		}
	}
	if err := p.datasetClauses(q); err != nil {
		return nil, err
	}
	if err := p.whereClause(q, false); err != nil {
		return nil, err
	}
	if err := p.solutionModifier(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *parser) datasetClauses(q *Query) error {
	for p.acceptKeyword("FROM") {
		named := p.acceptKeyword("NAMED")
		iri, err := p.iri()
		if err != nil {
			return err
		}
		if q.From == nil {
			q.From = &Dataset{}
		}
		if named {
			q.From.Named = append(q.From.Named, iri)
		} else {
			q.From.Default = append(q.From.Default, iri)
		}
	}
	return nil
}

func (p *parser) whereClause(q *Query, required bool) error {
	hasWhere := p.acceptKeyword("WHERE")
	if !hasWhere && !required && !isPunct(p.peek(), "{") {
		return nil
	}
	where, err := p.groupGraphPattern()
	if err != nil {
		return err
	}
	q.Where = where
	return nil
}

func (p *parser) solutionModifier(q *Query) error {
	if p.acceptKeyword("GROUP") {
		if err := p.expectKeyword("BY"); err != nil {
			return err
		}
		for {
			g, ok, err := p.groupCondition()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			q.Group = append(q.Group, g)
		}
		if len(q.Group) == 0 {
			return p.unexpected(p.peek(), "group condition")
		}
	}
	if p.acceptKeyword("HAVING") {
		for p.startsConstraint() {
			expr, err := p.constraint()
			if err != nil {
				return err
			}
			q.Having = append(q.Having, expr)
		}
		if len(q.Having) == 0 {
			return p.unexpected(p.peek(), "having condition")
		}
	}
	if p.acceptKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return err
		}
		for {
			o, ok, err := p.orderCondition()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			q.Order = append(q.Order, o)
		}
		if len(q.Order) == 0 {
			return p.unexpected(p.peek(), "order condition")
		}
	}
	for p.atKeyword("LIMIT", "OFFSET") {
		isLimit := p.acceptKeyword("LIMIT")
		if !isLimit {
			p.next()
		}
		tok := p.next()
		if tok.kind != tokInteger {
			return p.unexpected(tok, "integer")
		}
		n, err := strconv.Atoi(tok.text)
		if err != nil {
			return p.errorf(tok, "invalid integer %q", tok.text)
		}
		if isLimit {
			q.Limit = &n
		} else {
			q.Offset = &n
		}
	}
	return nil
}

func (p *parser) groupCondition() (Grouping, bool, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokVar:
		p.next()
		return Grouping{Expression: TermExpr(Variable(tok.text))}, true, nil
	case isPunct(tok, "("):
		p.next()
		expr, err := p.expression()
		if err != nil {
			return Grouping{}, false, err
		}
		g := Grouping{Expression: expr}
		if p.acceptKeyword("AS") {
			v, err := p.variable()
			if err != nil {
				return Grouping{}, false, err
			}
			g.Variable = &v
		}
		if err := p.expectPunct(")"); err != nil {
			return Grouping{}, false, err
		}
		return g, true, nil
	case p.startsConstraint():
		expr, err := p.constraint()
		if err != nil {
			return Grouping{}, false, err
		}
		return Grouping{Expression: expr}, true, nil
	}
	return Grouping{}, false, nil
}

func (p *parser) orderCondition() (Ordering, bool, error) {
	tok := p.peek()
	switch {
	case isKeyword(tok, "ASC"), isKeyword(tok, "DESC"):
		p.next()
		if err := p.expectPunct("("); err != nil {
			return Ordering{}, false, err
		}
		expr, err := p.expression()
		if err != nil {
			return Ordering{}, false, err
		}
		if err := p.expectPunct(")"); err != nil {
			return Ordering{}, false, err
		}
		return Ordering{Expression: expr, Descending: isKeyword(tok, "DESC")}, true, nil
	case tok.kind == tokVar:
		p.next()
		return Ordering{Expression: TermExpr(Variable(tok.text))}, true, nil
	case p.startsConstraint():
		expr, err := p.constraint()
		if err != nil {
			return Ordering{}, false, err
		}
		return Ordering{Expression: expr}, true, nil
	}
	return Ordering{}, false, nil
}

func (p *parser) dataBlock() (*Values, error) {
	v := &Values{}
	if p.peek().kind == tokVar {
		name, _ := p.variable()
		v.Variables = []Term{name}
		if err := p.expectPunct("{"); err != nil {
			return nil, err
		}
		for !p.acceptPunct("}") {
			cell, err := p.dataBlockValue()
			if err != nil {
				return nil, err
			}
			v.Rows = append(v.Rows, []*Term{cell})
		}
		return v, nil
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	for !p.acceptPunct(")") {
		name, err := p.variable()
		if err != nil {
			return nil, err
		}
		v.Variables = append(v.Variables, name)
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.acceptPunct("}") {
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		var row []*Term
		for !p.acceptPunct(")") {
			cell, err := p.dataBlockValue()
			if err != nil {
				return nil, err
			}
			row = append(row, cell)
		}
		if len(row) != len(v.Variables) {
			return nil, p.errorf(p.peek(), "VALUES row has %d values for %d variables", len(row), len(v.Variables))
		}
		v.Rows = append(v.Rows, row)
	}
	return v, nil
}

func (p *parser) dataBlockValue() (*Term, error) {
	if p.acceptKeyword("UNDEF") {
		return nil, nil
	}
	tok := p.peek()
	if isIRIToken(tok) {
		t, err := p.iri()
		return &t, err
	}
	t, ok, err := p.literal()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.unexpected(tok, "data value")
	}
	return &t, nil
}

// literal parses an RDF literal, numeric literal or boolean. ok is false
// when the next token does not start a literal.
func (p *parser) literal() (Term, bool, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokString:
		p.next()
		t := Term{Type: LiteralTerm, Value: tok.text}
		if lang := p.peek(); lang.kind == tokLangTag {
			p.next()
			t.Language = strings.ToLower(lang.text)
		} else if p.acceptPunct("^^") {
			dt, err := p.iri()
			if err != nil {
				return Term{}, false, err
			}
			if dt.Value != XSDString {
				t.Datatype = dt.Value
			}
		}
		return t, true, nil
	case tok.kind == tokInteger:
		p.next()
		return TypedLiteral(tok.text, XSDInteger), true, nil
	case tok.kind == tokDecimal:
		p.next()
		return TypedLiteral(tok.text, XSDDecimal), true, nil
	case tok.kind == tokDouble:
		p.next()
		return TypedLiteral(tok.text, XSDDouble), true, nil
	case isKeyword(tok, "true"), isKeyword(tok, "false"):
		p.next()
		return TypedLiteral(strings.ToLower(tok.text), XSDBoolean), true, nil
	case isPunct(tok, "+"), isPunct(tok, "-"):
		num := p.peekAt(1)
		if num.kind != tokInteger && num.kind != tokDecimal && num.kind != tokDouble {
			return Term{}, false, nil
		}
		p.next()
		t, _, err := p.literal()
		if tok.text == "-" {
			t.Value = "-" + t.Value
		}
		return t, true, err
	}
	return Term{}, false, nil
}
