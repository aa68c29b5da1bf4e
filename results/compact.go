package results

import (
	"sort"
	"strings"
)

// DefaultPrefixes are the namespaces every Compactor knows.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"schema": "http://schema.org/",
		"rdf":    "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"owl":    "http://www.w3.org/2002/07/owl#",
		"dbo":    "http://dbpedia.org/ontology/",
	}
}

type namespace struct {
	name string
	iri  string
}

// Compactor rewrites IRIs into prefix:local form.
type Compactor struct {
	namespaces []namespace
}

// NewCompactor builds a Compactor from DefaultPrefixes overlaid with
// prefixes. Entries in prefixes replace defaults with the same name.
func NewCompactor(prefixes map[string]string) *Compactor {
	merged := DefaultPrefixes()
	for name, iri := range prefixes {
		merged[name] = iri
	}

	c := &Compactor{namespaces: make([]namespace, 0, len(merged))}
	for name, iri := range merged {
		if iri == "" {
			continue
		}
		c.namespaces = append(c.namespaces, namespace{name: name, iri: iri})
	}
	// Longest namespace first so nested namespaces win over their parents.
	sort.Slice(c.namespaces, func(i, j int) bool {
		a, b := c.namespaces[i], c.namespaces[j]
		if len(a.iri) != len(b.iri) {
			return len(a.iri) > len(b.iri)
		}
		return a.name < b.name
	})
	return c
}

// Compact returns value with its namespace replaced by a prefix, or value
// unchanged when no namespace matches. A nil Compactor uses the defaults.
func (c *Compactor) Compact(value string) string {
	if c == nil {
		c = NewCompactor(nil)
	}
	for _, ns := range c.namespaces {
		if strings.HasPrefix(value, ns.iri) {
			return ns.name + ":" + value[len(ns.iri):]
		}
	}
	return value
}

// Prefixes returns the namespaces of c keyed by prefix name.
func (c *Compactor) Prefixes() map[string]string {
	out := make(map[string]string, len(c.namespaces))
	for _, ns := range c.namespaces {
		out[ns.name] = ns.iri
	}
	return out
}
