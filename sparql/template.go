package sparql

import "strings"

// PlaceholderPrologue declares the var: namespace used by named-node
// placeholders.
const PlaceholderPrologue = "PREFIX var: <" + PlaceholderScheme + ">\n"

// Build assembles a query template from literal text parts interleaved with
// arguments, the way a tagged template would: parts[0] + args[0] + parts[1]
// and so on. Each argument contributes its Lexical form. The var: prefix is
// declared ahead of the text, so templates may use var:name placeholders
// without declaring it.
//
//	doc, err := sparql.Build([]string{"SELECT * WHERE { ?s ?p ?o } LIMIT ", ""}, 10)
func Build(parts []string, args ...any) (Document, error) {
	var b strings.Builder
	b.WriteString(PlaceholderPrologue)
	for i, part := range parts {
		if i > 0 && i-1 < len(args) {
			b.WriteString(Lexical(args[i-1]))
		}
		b.WriteString(part)
	}
	for i := len(parts); i <= len(args); i++ {
		if i > 0 {
			b.WriteString(Lexical(args[i-1]))
		}
	}
	return Parse(b.String())
}

// BuildString parses a single-part template.
func BuildString(src string) (Document, error) {
	return Build([]string{src})
}

// MustBuild is like BuildString but panics on error.
func MustBuild(src string) Document {
	doc, err := BuildString(src)
	if err != nil {
		panic(err)
	}
	return doc
}
