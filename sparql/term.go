package sparql

import (
	"fmt"
	"math"
	"strconv"
)

// TermType identifies the kind of an RDF term.
type TermType string

const (
	NamedNodeTerm TermType = "NamedNode"
	LiteralTerm   TermType = "Literal"
	VariableTerm  TermType = "Variable"
	BlankNodeTerm TermType = "BlankNode"
)

// PlaceholderScheme is the IRI scheme of named-node placeholders.
const PlaceholderScheme = "var://"

// Well-known namespaces.
const (
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"

	RDFType       = RDFNamespace + "type"
	RDFFirst      = RDFNamespace + "first"
	RDFRest       = RDFNamespace + "rest"
	RDFNil        = RDFNamespace + "nil"
	RDFLangString = RDFNamespace + "langString"

	XSDString  = XSDNamespace + "string"
	XSDInteger = XSDNamespace + "integer"
	XSDDecimal = XSDNamespace + "decimal"
	XSDDouble  = XSDNamespace + "double"
	XSDBoolean = XSDNamespace + "boolean"
)

// Term is an RDF term: a named node, literal, variable or blank node.
//
// Value holds the IRI of a named node, the lexical form of a literal, the
// name of a variable (without the leading ? or $) or the label of a blank
// node. Language and Datatype are only meaningful for literals; a literal
// with neither is a plain xsd:string.
type Term struct {
	Type     TermType `json:"termType"`
	Value    string   `json:"value"`
	Language string   `json:"language,omitempty"`
	Datatype string   `json:"datatype,omitempty"`
}

// NamedNode returns a named node for iri.
func NamedNode(iri string) Term {
	return Term{Type: NamedNodeTerm, Value: iri}
}

// URL returns a named node for iri. Substituting a URL term places an IRI in
// the query; substituting a bare string always produces a literal.
func URL(iri string) Term {
	return NamedNode(iri)
}

// URLf formats its arguments like fmt.Sprintf and returns the result as a
// named node.
func URLf(format string, args ...any) Term {
	return NamedNode(fmt.Sprintf(format, args...))
}

// Literal returns a plain literal holding the lexical form of v.
func Literal(v any) Term {
	return Term{Type: LiteralTerm, Value: Lexical(v)}
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(value, lang string) Term {
	return Term{Type: LiteralTerm, Value: value, Language: lang}
}

// TypedLiteral returns a literal with an explicit datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Type: LiteralTerm, Value: value, Datatype: datatype}
}

// Variable returns a variable term. name must not include the ? sigil.
func Variable(name string) Term {
	return Term{Type: VariableTerm, Value: name}
}

// BlankNode returns a blank node with the given label.
func BlankNode(label string) Term {
	return Term{Type: BlankNodeTerm, Value: label}
}

// IsZero reports whether t is the zero Term.
func (t Term) IsZero() bool {
	return t.Type == ""
}

// IsPlaceholder reports whether t marks the substitution point name: either
// the variable ?name or the named node <var://name>.
func (t Term) IsPlaceholder(name string) bool {
	switch t.Type {
	case VariableTerm:
		return t.Value == name
	case NamedNodeTerm:
		return t.Value == PlaceholderScheme+name
	default:
		return false
	}
}

// String renders t in N-Triples-like notation for diagnostics.
func (t Term) String() string {
	switch t.Type {
	case NamedNodeTerm:
		return "<" + t.Value + ">"
	case VariableTerm:
		return "?" + t.Value
	case BlankNodeTerm:
		return "_:" + t.Value
	case LiteralTerm:
		s := strconv.Quote(t.Value)
		if t.Language != "" {
			return s + "@" + t.Language
		}
		if t.Datatype != "" && t.Datatype != XSDString {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return ""
	}
}

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is a substitution value that renders as the literal "undefined".
// It stands apart from nil, which renders as "null".
var Undefined fmt.Stringer = undefined{}

// Lexical returns the text a scalar value contributes to a query: strings
// as-is, nil as "null", booleans and numbers in their shortest decimal form.
// Zero values are never treated as absent: 0 is "0" and false is "false".
func Lexical(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case Term:
		return val.Value
	case *Term:
		if val == nil {
			return "null"
		}
		return val.Value
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return formatFloat(float64(val), 32)
	case float64:
		return formatFloat(val, 64)
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	default:
		return fmt.Sprint(val)
	}
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) >= 1e21:
		return strconv.FormatFloat(f, 'e', -1, bits)
	default:
		return strconv.FormatFloat(f, 'f', -1, bits)
	}
}
