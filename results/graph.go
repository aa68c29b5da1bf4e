package results

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/knakk/rdf"
	"github.com/piprate/json-gold/ld"
)

// ParseGraph converts a Turtle or N-Triples document into expanded JSON-LD.
//
// With a nil frame the flattened node list from fromRDF is returned. With a
// frame, the document is framed under a context built from prefixes (keys
// of frame override it, including "@context"); a framed result holding a
// single node is returned as that node with the context attached.
func ParseGraph(text string, prefixes map[string]string, frame map[string]any) (any, error) {
	nquads, err := toNTriples(text)
	if err != nil {
		return nil, err
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	doc, err := proc.FromRDF(nquads, opts)
	if err != nil {
		return nil, fmt.Errorf("results: json-ld from rdf: %w", err)
	}
	if frame == nil {
		return doc, nil
	}

	context := make(map[string]any, len(prefixes))
	for name, iri := range prefixes {
		context[name] = iri
	}
	spec := map[string]any{"@context": context}
	for k, v := range frame {
		spec[k] = v
	}

	framed, err := proc.Frame(doc, spec, ld.NewJsonLdOptions(""))
	if err != nil {
		return nil, fmt.Errorf("results: json-ld frame: %w", err)
	}
	return liftSingleNode(framed), nil
}

func toNTriples(text string) (string, error) {
	triples, err := rdf.NewTripleDecoder(strings.NewReader(text), rdf.Turtle).DecodeAll()
	if err != nil {
		return "", fmt.Errorf("results: parse turtle: %w", err)
	}

	var buf bytes.Buffer
	enc := rdf.NewTripleEncoder(&buf, rdf.NTriples)
	for _, t := range triples {
		if err := enc.Encode(t); err != nil {
			return "", fmt.Errorf("results: write n-triples: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("results: write n-triples: %w", err)
	}
	return buf.String(), nil
}

func liftSingleNode(framed map[string]any) any {
	graph, ok := framed["@graph"].([]any)
	if !ok || len(graph) != 1 {
		return framed
	}
	node, ok := graph[0].(map[string]any)
	if !ok {
		return framed
	}
	out := make(map[string]any, len(node)+1)
	for k, v := range node {
		out[k] = v
	}
	if ctx, ok := framed["@context"]; ok {
		out["@context"] = ctx
	}
	return out
}
