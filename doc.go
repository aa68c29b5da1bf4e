// Package databorg is a SPARQL client for parameterized queries.
//
// Queries are written as SPARQL text (or built with sparql.Build) using
// placeholders: ordinary variables such as ?uri, or named nodes in the
// var: namespace such as var:uri. A Client parses the text with its
// configured prefixes, substitutes the request variables into a copy of
// the query tree, and runs the result through an exchange pipeline that
// sends it to the endpoint and normalizes the response.
//
//	client, err := databorg.New(databorg.Config{
//		QueryEndpoint: "https://dbpedia.org/sparql",
//		Prefixes:      map[string]string{"dbo": "http://dbpedia.org/ontology/"},
//	})
//	res, err := client.Query(ctx, databorg.Request{
//		Query:     "SELECT ?p ?o WHERE { ?uri ?p ?o }",
//		Variables: substitute.Variables{"uri": sparql.URL("http://dbpedia.org/resource/Berlin")},
//	})
package databorg
