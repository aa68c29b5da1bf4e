// Package sparql provides the SPARQL 1.1 syntax tree used by the databorg
// client, together with the parser that builds it from source text and the
// generator that turns it back into query text.
//
// DOCUMENTS:
//
// A Document is either a *Query (SELECT, ASK, CONSTRUCT, DESCRIBE) or an
// *Update (one or more update operations separated by ";"). Document is a
// sealed interface; a type switch over it only needs the two cases:
//
//	switch d := doc.(type) {
//	case *Query:
//	    // read query
//	case *Update:
//	    // update request
//	}
//
// PATTERNS:
//
// Pattern is a single tagged struct rather than one type per syntax form.
// A pattern may carry several payloads at once (a GRAPH block inside
// INSERT DATA has both a Name and Triples), so consumers test capabilities
// with HasName, HasTriples, HasPatterns, HasExpression and IsSubQuery
// instead of switching on Type alone.
//
// PLACEHOLDERS:
//
// Query templates mark substitution points either with a variable (?name)
// or, where the grammar does not allow a variable, with a named node in the
// reserved var: namespace:
//
//	PREFIX var: <var://>
//	INSERT DATA { GRAPH var:graph { var:subject a <http://schema.org/Person> } }
//
// Term.IsPlaceholder recognizes both forms. Build and BuildString prepend the
// var: prefix declaration so templates never need to declare it themselves.
//
// PARSER AND GENERATOR:
//
// Parser and Generator are stateless values. DefaultParser and
// DefaultGenerator are ready to use and safe for concurrent use; callers that
// need their own instance can use the zero value. The generator only emits
// PREFIX declarations for namespaces the generated body actually uses.
package sparql
