package sparql

import "strings"

func (p *parser) update() (*Update, error) {
	u := &Update{}
	for p.peek().kind != tokEOF {
		op, err := p.operation()
		if err != nil {
			return nil, err
		}
		u.Operations = append(u.Operations, op)
		if !p.acceptPunct(";") {
			break
		}
		if err := p.prologue(); err != nil {
			return nil, err
		}
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	if len(u.Operations) == 0 {
		return nil, p.unexpected(p.peek(), "query or update operation")
	}
	return u, nil
}

func (p *parser) operation() (*Operation, error) {
	tok := p.peek()
	if tok.kind != tokKeyword {
		return nil, p.unexpected(tok, "query or update operation")
	}
	switch kw := strings.ToUpper(tok.text); kw {
	case "LOAD":
		p.next()
		op := &Operation{Type: LoadUpdate, Silent: p.acceptKeyword("SILENT")}
		src, err := p.iri()
		if err != nil {
			return nil, err
		}
		op.Source = &GraphTarget{Kind: NamedGraphTarget, Name: src}
		if p.acceptKeyword("INTO") {
			if op.Destination, err = p.graphRef(); err != nil {
				return nil, err
			}
		}
		return op, nil

	case "CLEAR", "DROP":
		p.next()
		op := &Operation{Type: UpdateType(strings.ToLower(kw)), Silent: p.acceptKeyword("SILENT")}
		var err error
		switch {
		case p.acceptKeyword("DEFAULT"):
			op.Graph = &GraphTarget{Kind: DefaultGraphTarget}
		case p.acceptKeyword("NAMED"):
			op.Graph = &GraphTarget{Kind: AllNamedTarget}
		case p.acceptKeyword("ALL"):
			op.Graph = &GraphTarget{Kind: AllGraphsTarget}
		default:
			op.Graph, err = p.graphRef()
		}
		return op, err

	case "CREATE":
		p.next()
		op := &Operation{Type: CreateUpdate, Silent: p.acceptKeyword("SILENT")}
		var err error
		op.Graph, err = p.graphRef()
		return op, err

	case "ADD", "MOVE", "COPY":
		p.next()
		op := &Operation{Type: UpdateType(strings.ToLower(kw)), Silent: p.acceptKeyword("SILENT")}
		var err error
		if op.Source, err = p.graphOrDefault(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("TO"); err != nil {
			return nil, err
		}
		op.Destination, err = p.graphOrDefault()
		return op, err

	case "INSERT":
		if isKeyword(p.peekAt(1), "DATA") {
			p.next()
			p.next()
			quads, err := p.quadPattern()
			return &Operation{Type: InsertDataUpdate, Insert: quads}, err
		}
		return p.modify()

	case "DELETE":
		switch {
		case isKeyword(p.peekAt(1), "DATA"):
			p.next()
			p.next()
			quads, err := p.quadPattern()
			return &Operation{Type: DeleteDataUpdate, Delete: quads}, err
		case isKeyword(p.peekAt(1), "WHERE"):
			p.next()
			p.next()
			quads, err := p.quadPattern()
			return &Operation{Type: DeleteWhereUpdate, Delete: quads}, err
		}
		return p.modify()

	case "WITH":
		return p.modify()
	}
	return nil, p.unexpected(tok, "query or update operation")
}

// modify parses [WITH iri] DELETE {..} INSERT {..} USING .. WHERE {..}.
func (p *parser) modify() (*Operation, error) {
	op := &Operation{Type: ModifyUpdate}
	if p.acceptKeyword("WITH") {
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		op.Graph = &GraphTarget{Kind: NamedGraphTarget, Name: iri}
	}
	var err error
	if p.acceptKeyword("DELETE") {
		if op.Delete, err = p.quadPattern(); err != nil {
			return nil, err
		}
		if op.Delete == nil {
			op.Delete = []*Pattern{}
		}
	}
	if p.acceptKeyword("INSERT") {
		if op.Insert, err = p.quadPattern(); err != nil {
			return nil, err
		}
		if op.Insert == nil {
			op.Insert = []*Pattern{}
		}
	}
	if op.Delete == nil && op.Insert == nil {
		return nil, p.unexpected(p.peek(), "DELETE or INSERT")
	}
	for p.acceptKeyword("USING") {
		named := p.acceptKeyword("NAMED")
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		if op.Using == nil {
			op.Using = &Dataset{}
		}
		if named {
			op.Using.Named = append(op.Using.Named, iri)
		} else {
			op.Using.Default = append(op.Using.Default, iri)
		}
	}
	if err := p.expectKeyword("WHERE"); err != nil {
		return nil, err
	}
	op.Where, err = p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (p *parser) graphRef() (*GraphTarget, error) {
	if err := p.expectKeyword("GRAPH"); err != nil {
		return nil, err
	}
	iri, err := p.iri()
	if err != nil {
		return nil, err
	}
	return &GraphTarget{Kind: NamedGraphTarget, Name: iri}, nil
}

func (p *parser) graphOrDefault() (*GraphTarget, error) {
	if p.acceptKeyword("DEFAULT") {
		return &GraphTarget{Kind: DefaultGraphTarget}, nil
	}
	p.acceptKeyword("GRAPH")
	iri, err := p.iri()
	if err != nil {
		return nil, err
	}
	return &GraphTarget{Kind: NamedGraphTarget, Name: iri}, nil
}
