package sparql

// groupGraphPattern parses '{' ... '}' and returns its contents. A nested
// SELECT is returned as a single query pattern.
func (p *parser) groupGraphPattern() ([]*Pattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	if p.atKeyword("SELECT") {
		sub, err := p.subSelect()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		return []*Pattern{{Type: QueryPattern, Query: sub}}, nil
	}

	var (
		out     []*Pattern
		bgp     *Pattern
		needDot bool
	)
	for {
		tok := p.peek()
		if p.acceptPunct("}") {
			return out, nil
		}
		if tok.kind == tokEOF {
			return nil, p.unexpected(tok, `"}"`)
		}

		pattern, err := p.graphPatternNotTriples()
		if err != nil {
			return nil, err
		}
		if pattern != nil {
			out = append(out, pattern)
			bgp, needDot = nil, false
			p.acceptPunct(".")
			continue
		}

		if needDot {
			return nil, p.unexpected(tok, `"."`)
		}
		triples, err := p.triplesSameSubject(true)
		if err != nil {
			return nil, err
		}
		if bgp == nil {
			bgp = &Pattern{Type: BGPPattern}
			out = append(out, bgp)
		}
		bgp.Triples = append(bgp.Triples, triples...)
		needDot = !p.acceptPunct(".")
	}
}

// graphPatternNotTriples parses OPTIONAL, MINUS, GRAPH, SERVICE, FILTER,
// BIND, VALUES and group-or-union patterns. It returns nil when the next
// token starts a triples block instead.
func (p *parser) graphPatternNotTriples() (*Pattern, error) {
	tok := p.peek()
	switch {
	case isKeyword(tok, "OPTIONAL"), isKeyword(tok, "MINUS"):
		p.next()
		inner, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		typ := OptionalPattern
		if isKeyword(tok, "MINUS") {
			typ = MinusPattern
		}
		return &Pattern{Type: typ, Patterns: inner}, nil

	case isKeyword(tok, "GRAPH"):
		p.next()
		name, err := p.varOrIRI()
		if err != nil {
			return nil, err
		}
		inner, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &Pattern{Type: GraphPattern, Name: &name, Patterns: inner}, nil

	case isKeyword(tok, "SERVICE"):
		p.next()
		silent := p.acceptKeyword("SILENT")
		name, err := p.varOrIRI()
		if err != nil {
			return nil, err
		}
		inner, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &Pattern{Type: ServicePattern, Name: &name, Silent: silent, Patterns: inner}, nil

	case isKeyword(tok, "FILTER"):
		p.next()
		expr, err := p.constraint()
		if err != nil {
			return nil, err
		}
		return &Pattern{Type: FilterPattern, Expression: expr}, nil

	case isKeyword(tok, "BIND"):
		p.next()
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
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
		return &Pattern{Type: BindPattern, Expression: expr, Variable: &v}, nil

	case isKeyword(tok, "VALUES"):
		p.next()
		values, err := p.dataBlock()
		if err != nil {
			return nil, err
		}
		return &Pattern{Type: ValuesPattern, Values: values}, nil

	case isPunct(tok, "{"):
		return p.groupOrUnion()
	}
	return nil, nil
}

func (p *parser) groupOrUnion() (*Pattern, error) {
	var groups []*Pattern
	for {
		inner, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		groups = append(groups, &Pattern{Type: GroupPattern, Patterns: inner})
		if !p.acceptKeyword("UNION") {
			break
		}
	}
	if len(groups) == 1 {
		return groups[0], nil
	}
	return &Pattern{Type: UnionPattern, Patterns: groups}, nil
}

// triplesTemplate parses triples up to and including the closing '}'.
func (p *parser) triplesTemplate() ([]Triple, error) {
	var out []Triple
	for !p.acceptPunct("}") {
		triples, err := p.triplesSameSubject(false)
		if err != nil {
			return nil, err
		}
		out = append(out, triples...)
		if !p.acceptPunct(".") && !isPunct(p.peek(), "}") {
			return nil, p.unexpected(p.peek(), `"." or "}"`)
		}
	}
	return out, nil
}

// quadPattern parses the braces of INSERT DATA, DELETE DATA, DELETE WHERE
// and the DELETE and INSERT templates of a modify operation.
func (p *parser) quadPattern() ([]*Pattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var (
		out []*Pattern
		bgp *Pattern
	)
	for !p.acceptPunct("}") {
		if p.acceptKeyword("GRAPH") {
			name, err := p.varOrIRI()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("{"); err != nil {
				return nil, err
			}
			triples, err := p.triplesTemplate()
			if err != nil {
				return nil, err
			}
			out = append(out, &Pattern{Type: GraphPattern, Name: &name, Triples: triples})
			bgp = nil
			p.acceptPunct(".")
			continue
		}
		triples, err := p.triplesSameSubject(false)
		if err != nil {
			return nil, err
		}
		if bgp == nil {
			bgp = &Pattern{Type: BGPPattern}
			out = append(out, bgp)
		}
		bgp.Triples = append(bgp.Triples, triples...)
		if !p.acceptPunct(".") && !isPunct(p.peek(), "}") && !p.atKeyword("GRAPH") {
			return nil, p.unexpected(p.peek(), `"." or "}"`)
		}
	}
	return out, nil
}

// triplesSameSubject parses a subject with its property list. Triples
// generated for blank-node property lists and collections follow the triple
// that references them.
func (p *parser) triplesSameSubject(allowPath bool) ([]Triple, error) {
	tok := p.peek()
	if (isPunct(tok, "[") && !isPunct(p.peekAt(1), "]")) || (isPunct(tok, "(") && !isPunct(p.peekAt(1), ")")) {
		subject, out, err := p.graphNode(allowPath)
		if err != nil {
			return nil, err
		}
		if !p.startsVerb(allowPath) {
			return out, nil
		}
		more, err := p.propertyList(subject, allowPath)
		if err != nil {
			return nil, err
		}
		return append(out, more...), nil
	}
	subject, err := p.varOrTerm()
	if err != nil {
		return nil, err
	}
	return p.propertyList(subject, allowPath)
}

func (p *parser) startsVerb(allowPath bool) bool {
	tok := p.peek()
	switch {
	case tok.kind == tokVar, isIRIToken(tok):
		return true
	case tok.kind == tokKeyword && tok.text == "a":
		return true
	case allowPath && (isPunct(tok, "^") || isPunct(tok, "!") || isPunct(tok, "(")):
		return true
	}
	return false
}

func (p *parser) propertyList(subject Term, allowPath bool) ([]Triple, error) {
	var out []Triple
	for {
		if !p.startsVerb(allowPath) {
			return nil, p.unexpected(p.peek(), "predicate")
		}
		predicate, path, err := p.verb(allowPath)
		if err != nil {
			return nil, err
		}
		for {
			object, nested, err := p.graphNode(allowPath)
			if err != nil {
				return nil, err
			}
			out = append(out, Triple{Subject: subject, Predicate: predicate, Path: path, Object: object})
			out = append(out, nested...)
			if !p.acceptPunct(",") {
				break
			}
		}
		if !p.acceptPunct(";") {
			return out, nil
		}
		for p.acceptPunct(";") {
		}
		if !p.startsVerb(allowPath) {
			return out, nil
		}
	}
}

func (p *parser) verb(allowPath bool) (Term, *Path, error) {
	tok := p.peek()
	if tok.kind == tokVar {
		v, err := p.variable()
		return v, nil, err
	}
	if !allowPath {
		if tok.kind == tokKeyword && tok.text == "a" {
			p.next()
			return NamedNode(RDFType), nil, nil
		}
		iri, err := p.iri()
		return iri, nil, err
	}
	path, err := p.pathAlternative()
	if err != nil {
		return Term{}, nil, err
	}
	if path.Type == PathLink {
		return path.Link, nil, nil
	}
	return Term{}, path, nil
}

func (p *parser) pathAlternative() (*Path, error) {
	return p.pathList(PathAlternative, "|", p.pathSequence)
}

func (p *parser) pathSequence() (*Path, error) {
	return p.pathList(PathSequence, "/", p.pathEltOrInverse)
}

func (p *parser) pathList(typ PathType, sep string, item func() (*Path, error)) (*Path, error) {
	first, err := item()
	if err != nil {
		return nil, err
	}
	items := []*Path{first}
	for p.acceptPunct(sep) {
		next, err := item()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
	}
	if len(items) == 1 {
		return first, nil
	}
	return &Path{Type: typ, Items: items}, nil
}

func (p *parser) pathEltOrInverse() (*Path, error) {
	if p.acceptPunct("^") {
		elt, err := p.pathElt()
		if err != nil {
			return nil, err
		}
		return &Path{Type: PathInverse, Items: []*Path{elt}}, nil
	}
	return p.pathElt()
}

func (p *parser) pathElt() (*Path, error) {
	prim, err := p.pathPrimary()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	for _, mod := range []PathType{PathZeroOrMore, PathOneOrMore, PathZeroOrOne} {
		if isPunct(tok, string(mod)) {
			p.next()
			return &Path{Type: mod, Items: []*Path{prim}}, nil
		}
	}
	return prim, nil
}

func (p *parser) pathPrimary() (*Path, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokKeyword && tok.text == "a":
		p.next()
		return &Path{Type: PathLink, Link: NamedNode(RDFType)}, nil
	case p.acceptPunct("!"):
		return p.pathNegated()
	case p.acceptPunct("("):
		path, err := p.pathAlternative()
		if err != nil {
			return nil, err
		}
		return path, p.expectPunct(")")
	}
	iri, err := p.iri()
	if err != nil {
		return nil, err
	}
	return &Path{Type: PathLink, Link: iri}, nil
}

func (p *parser) pathNegated() (*Path, error) {
	neg := &Path{Type: PathNegated}
	one := func() error {
		inverse := p.acceptPunct("^")
		var link Term
		if tok := p.peek(); tok.kind == tokKeyword && tok.text == "a" {
			p.next()
			link = NamedNode(RDFType)
		} else {
			iri, err := p.iri()
			if err != nil {
				return err
			}
			link = iri
		}
		item := &Path{Type: PathLink, Link: link}
		if inverse {
			item = &Path{Type: PathInverse, Items: []*Path{item}}
		}
		neg.Items = append(neg.Items, item)
		return nil
	}
	if !p.acceptPunct("(") {
		return neg, one()
	}
	for {
		if err := one(); err != nil {
			return nil, err
		}
		if !p.acceptPunct("|") {
			break
		}
	}
	return neg, p.expectPunct(")")
}

// graphNode parses an object (or a complex subject) and returns the triples
// implied by blank-node property lists and collections.
func (p *parser) graphNode(allowPath bool) (Term, []Triple, error) {
	tok := p.peek()
	switch {
	case isPunct(tok, "[") && !isPunct(p.peekAt(1), "]"):
		p.next()
		node := p.freshBlank()
		triples, err := p.propertyList(node, allowPath)
		if err != nil {
			return Term{}, nil, err
		}
		return node, triples, p.expectPunct("]")

	case isPunct(tok, "(") && !isPunct(p.peekAt(1), ")"):
		p.next()
		var (
			items []Term
			out   []Triple
		)
		for !p.acceptPunct(")") {
			item, nested, err := p.graphNode(allowPath)
			if err != nil {
				return Term{}, nil, err
			}
			items = append(items, item)
			out = append(out, nested...)
		}
		head := p.freshBlank()
		node := head
		var list []Triple
		for i, item := range items {
			list = append(list, Triple{Subject: node, Predicate: NamedNode(RDFFirst), Object: item})
			rest := NamedNode(RDFNil)
			if i < len(items)-1 {
				rest = p.freshBlank()
			}
			list = append(list, Triple{Subject: node, Predicate: NamedNode(RDFRest), Object: rest})
			node = rest
		}
		return head, append(list, out...), nil
	}
	t, err := p.varOrTerm()
	return t, nil, err
}

func (p *parser) varOrTerm() (Term, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokVar:
		return p.variable()
	case isIRIToken(tok):
		return p.iri()
	case tok.kind == tokBlank:
		p.next()
		return BlankNode(tok.text), nil
	case isPunct(tok, "[") && isPunct(p.peekAt(1), "]"):
		p.next()
		p.next()
		return p.freshBlank(), nil
	case isPunct(tok, "(") && isPunct(p.peekAt(1), ")"):
		p.next()
		p.next()
		return NamedNode(RDFNil), nil
	}
	t, ok, err := p.literal()
	if err != nil {
		return Term{}, err
	}
	if !ok {
		return Term{}, p.unexpected(tok, "term")
	}
	return t, nil
}
