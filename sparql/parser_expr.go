package sparql

import "strings"

var aggregates = map[string]bool{
	"count": true, "sum": true, "min": true, "max": true,
	"avg": true, "sample": true, "group_concat": true,
}

// builtins lists the built-in calls accepted in expressions. Calls are
// stored lower case in Expression.Operator.
var builtins = map[string]bool{
	"str": true, "lang": true, "langmatches": true, "datatype": true, "bound": true,
	"iri": true, "uri": true, "bnode": true, "rand": true, "abs": true, "ceil": true,
	"floor": true, "round": true, "concat": true, "strlen": true, "ucase": true,
	"lcase": true, "encode_for_uri": true, "contains": true, "strstarts": true,
	"strends": true, "strbefore": true, "strafter": true, "year": true, "month": true,
	"day": true, "hours": true, "minutes": true, "seconds": true, "timezone": true,
	"tz": true, "now": true, "uuid": true, "struuid": true, "md5": true, "sha1": true,
	"sha256": true, "sha384": true, "sha512": true, "coalesce": true, "if": true,
	"strlang": true, "strdt": true, "sameterm": true, "isiri": true, "isuri": true,
	"isblank": true, "isliteral": true, "isnumeric": true, "regex": true,
	"substr": true, "replace": true,
}

// startsConstraint reports whether the next token starts a FILTER, HAVING or
// ORDER BY constraint: a bracketed expression, a built-in call or a
// function call.
func (p *parser) startsConstraint() bool {
	tok := p.peek()
	switch {
	case isPunct(tok, "("):
		return true
	case isIRIToken(tok):
		return isPunct(p.peekAt(1), "(")
	case tok.kind == tokKeyword:
		name := strings.ToLower(tok.text)
		return builtins[name] || aggregates[name] || name == "exists" || name == "not"
	}
	return false
}

func (p *parser) constraint() (*Expression, error) {
	if p.acceptPunct("(") {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		return expr, p.expectPunct(")")
	}
	if !p.startsConstraint() {
		return nil, p.unexpected(p.peek(), "constraint")
	}
	return p.primaryExpression()
}

func (p *parser) expression() (*Expression, error) {
	return p.binary([]string{"||"}, p.conditionalAnd)
}

func (p *parser) conditionalAnd() (*Expression, error) {
	return p.binary([]string{"&&"}, p.relationalExpression)
}

func (p *parser) additiveExpression() (*Expression, error) {
	return p.binary([]string{"+", "-"}, p.multiplicativeExpression)
}

func (p *parser) multiplicativeExpression() (*Expression, error) {
	return p.binary([]string{"*", "/"}, p.unaryExpression)
}

// binary parses a left-associative chain of operators over operand.
func (p *parser) binary(ops []string, operand func() (*Expression, error)) (*Expression, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		matched := ""
		for _, op := range ops {
			if isPunct(tok, op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return left, nil
		}
		p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = OperationExpr(matched, left, right)
	}
}

func (p *parser) relationalExpression() (*Expression, error) {
	left, err := p.additiveExpression()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	for _, op := range []string{"=", "!=", "<", ">", "<=", ">="} {
		if isPunct(tok, op) {
			p.next()
			right, err := p.additiveExpression()
			if err != nil {
				return nil, err
			}
			return OperationExpr(op, left, right), nil
		}
	}
	operator := ""
	switch {
	case isKeyword(tok, "IN"):
		p.next()
		operator = "in"
	case isKeyword(tok, "NOT") && isKeyword(p.peekAt(1), "IN"):
		p.next()
		p.next()
		operator = "notin"
	default:
		return left, nil
	}
	list, err := p.argList()
	if err != nil {
		return nil, err
	}
	return OperationExpr(operator, append([]*Expression{left}, list...)...), nil
}

func (p *parser) unaryExpression() (*Expression, error) {
	tok := p.peek()
	switch {
	case isPunct(tok, "!"):
		p.next()
		arg, err := p.primaryExpression()
		if err != nil {
			return nil, err
		}
		return OperationExpr("!", arg), nil
	case isPunct(tok, "+"), isPunct(tok, "-"):
		if t, ok, err := p.literal(); ok || err != nil {
			return TermExpr(t), err
		}
		p.next()
		arg, err := p.primaryExpression()
		if err != nil {
			return nil, err
		}
		return OperationExpr("u"+tok.text, arg), nil
	}
	return p.primaryExpression()
}

func (p *parser) primaryExpression() (*Expression, error) {
	tok := p.peek()
	switch {
	case isPunct(tok, "("):
		p.next()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		return expr, p.expectPunct(")")

	case tok.kind == tokVar:
		v, err := p.variable()
		return TermExpr(v), err

	case isIRIToken(tok):
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		if !isPunct(p.peek(), "(") {
			return TermExpr(iri), nil
		}
		p.next()
		expr := &Expression{Type: FunctionExpression, Function: iri}
		if isPunct(p.peek(), ")") {
			p.next()
			return expr, nil
		}
		expr.Distinct = p.acceptKeyword("DISTINCT")
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			expr.Args = append(expr.Args, arg)
			if !p.acceptPunct(",") {
				break
			}
		}
		return expr, p.expectPunct(")")

	case tok.kind == tokKeyword:
		name := strings.ToLower(tok.text)
		switch {
		case name == "exists":
			p.next()
			return p.existsExpression("exists")
		case name == "not" && isKeyword(p.peekAt(1), "EXISTS"):
			p.next()
			p.next()
			return p.existsExpression("notexists")
		case aggregates[name]:
			return p.aggregate()
		case builtins[name]:
			p.next()
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			return OperationExpr(name, args...), nil
		}
	}

	t, ok, err := p.literal()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.unexpected(tok, "expression")
	}
	return TermExpr(t), nil
}

func (p *parser) existsExpression(operator string) (*Expression, error) {
	inner, err := p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	expr := OperationExpr(operator)
	expr.Pattern = &Pattern{Type: GroupPattern, Patterns: inner}
	return expr, nil
}

// argList parses '(' expr (',' expr)* ')' or an empty list.
func (p *parser) argList() ([]*Expression, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []*Expression
	if p.acceptPunct(")") {
		return args, nil
	}
	for {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.acceptPunct(",") {
			break
		}
	}
	return args, p.expectPunct(")")
}

func (p *parser) aggregate() (*Expression, error) {
	name := strings.ToLower(p.next().text)
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	expr := &Expression{Type: AggregateExpression, Aggregation: name}
	expr.Distinct = p.acceptKeyword("DISTINCT")
	if name == "count" && p.acceptPunct("*") {
		expr.Wildcard = true
		return expr, p.expectPunct(")")
	}
	arg, err := p.expression()
	if err != nil {
		return nil, err
	}
	expr.Args = []*Expression{arg}
	if name == "group_concat" && p.acceptPunct(";") {
		if err := p.expectKeyword("SEPARATOR"); err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		tok := p.next()
		if tok.kind != tokString {
			return nil, p.unexpected(tok, "string")
		}
		sep := tok.text
		expr.Separator = &sep
	}
	return expr, p.expectPunct(")")
}
