// Package harness runs conformance scenarios against the databorg client.
//
// A scenario drives the real client, with its transport, parse and journal
// stages, against a fake SPARQL endpoint. Every step sends one request,
// the endpoint answers with a canned reply, and the harness records what
// was sent and what came back.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	prefixes:
//	  dbo: http://dbpedia.org/ontology/
//	request_id: city
//	steps:
//	  - kind: query
//	    query: "SELECT ?city WHERE { ?city dbo:country var:country }"
//	    variables:
//	      country: { iri: "http://dbpedia.org/resource/Germany" }
//	      name: "Berlin"
//	      label: { literal: "Berlin", lang: "de" }
//	    options: { parsing: { type: properties } }
//	    reply:
//	      status: 200
//	      content_type: application/sparql-results+json
//	      body: '{"head": {"vars": []}, "results": {"bindings": []}}'
//	    expect:
//	      response: []
//	assertions:
//	  - type: request_contains
//	    step: 0
//	    text: "dbr:Germany"
//	  - type: journal
//	    status: [ok]
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - request_contains: The text sent in a step contains a substring
//   - request_count: The endpoint received exactly N requests
//   - request_order: Requests went to the query or update endpoint in order
//   - request_header: A request header of a step has a given value
//   - journal: The journal holds entries with the given statuses, oldest first
//
// # Deterministic Testing
//
// Request IDs come from a fixed generator seeded with the scenario's
// request_id, the journal runs in memory on a step clock, and response
// headers are left out of traces. Identical scenarios therefore produce
// identical traces for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/select.yaml")
//	if err != nil {
//	    t.Fatal(err)
//	}
//	result, err := harness.Run(t, scenario)
package harness
