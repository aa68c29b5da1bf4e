// Package substitute replaces placeholders in parsed SPARQL documents with
// concrete terms.
//
// A placeholder is a variable (?name) or a named node in the reserved var:
// namespace (<var://name>). Substitute walks every position of a query or
// update that can hold one and replaces the placeholders named in a
// Variables map. Names absent from the map are left in place, so a template
// can be filled in stages.
//
// Substitution never fails and never removes a triple or pattern; it only
// retypes and retargets terms. FILTER expressions are left untouched.
package substitute

import "github.com/pneff/databorg-client/sparql"

// Variables maps placeholder names to substitution values. A value is
// either a sparql.Term (or *sparql.Term), which is used as given, or a
// scalar, which becomes a literal.
type Variables map[string]any

// Resolve converts a substitution value into the term that replaces a
// placeholder.
//
// Terms keep their type, value, language and datatype. Every other value,
// including a string that looks like an IRI, becomes a plain literal of its
// lexical form: use sparql.URL to substitute a named node. Zero values are
// kept: 0, false and "" produce the literals "0", "false" and "".
func Resolve(value any) sparql.Term {
	switch v := value.(type) {
	case sparql.Term:
		return v
	case *sparql.Term:
		if v != nil {
			return *v
		}
	case string:
		return sparql.Term{Type: sparql.LiteralTerm, Value: v}
	}
	return sparql.Literal(value)
}
