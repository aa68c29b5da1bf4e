package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pneff/databorg-client/sparql"
	"github.com/pneff/databorg-client/substitute"
)

// Scenario defines a conformance test scenario: a sequence of requests,
// the replies the endpoint gives them and the checks run afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Prefixes and Headers configure the client.
	Prefixes map[string]string `yaml:"prefixes,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`

	// RequestID prefixes the generated request IDs (RequestID-1,
	// RequestID-2, ...). Defaults to "req".
	RequestID string `yaml:"request_id,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions"`
}

// Step kinds.
const (
	KindQuery  = "query"
	KindUpdate = "update"
)

// Step sends one request.
type Step struct {
	// Kind is "query" (default) or "update".
	Kind string `yaml:"kind,omitempty"`

	// Query is the SPARQL text, placeholders included.
	Query string `yaml:"query"`

	Variables map[string]Binding `yaml:"variables,omitempty"`

	// Options is decoded with exchange.DecodeOptions.
	Options map[string]any `yaml:"options,omitempty"`

	// Reply is what the endpoint answers. Without one it answers
	// 204 No Content.
	Reply *Reply `yaml:"reply,omitempty"`

	// Expect is checked against the client's return values. If nil, the
	// step is only traced.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Reply is a canned endpoint response.
type Reply struct {
	Status      int    `yaml:"status"`
	ContentType string `yaml:"content_type,omitempty"`
	Body        string `yaml:"body,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected error class prefix ("http", "http 500",
	// "results", "parse"). Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Response is compared with the normalized response after both are
	// reduced to JSON values. If nil, the response is not checked.
	Response any `yaml:"response,omitempty"`
}

// Binding is a placeholder value. Scalars are used as they are; mappings
// select a term type:
//
//	{ iri: "http://..." }
//	{ literal: "x", lang: "en" }
//	{ literal: "5", datatype: "http://www.w3.org/2001/XMLSchema#integer" }
//	{ variable: "name" }
type Binding struct {
	Value any
}

type bindingSpec struct {
	IRI      string `yaml:"iri"`
	Literal  string `yaml:"literal"`
	Lang     string `yaml:"lang"`
	Datatype string `yaml:"datatype"`
	Variable string `yaml:"variable"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Binding) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return node.Decode(&b.Value)
	}

	var spec bindingSpec
	if err := node.Decode(&spec); err != nil {
		return err
	}
	switch {
	case spec.IRI != "":
		b.Value = sparql.URL(spec.IRI)
	case spec.Variable != "":
		b.Value = sparql.Variable(spec.Variable)
	case spec.Lang != "":
		b.Value = sparql.LangLiteral(spec.Literal, spec.Lang)
	case spec.Datatype != "":
		b.Value = sparql.TypedLiteral(spec.Literal, spec.Datatype)
	default:
		b.Value = sparql.Literal(spec.Literal)
	}
	return nil
}

// variables converts the step bindings for the client.
func (s Step) variables() substitute.Variables {
	if len(s.Variables) == 0 {
		return nil
	}
	vars := make(substitute.Variables, len(s.Variables))
	for name, b := range s.Variables {
		vars[name] = b.Value
	}
	return vars
}

// Assertion validates the requests or the journal after all steps ran.
type Assertion struct {
	// Type specifies the assertion type:
	// - "request_contains": Step's request body contains Text
	// - "request_count": Endpoint received exactly Count requests
	// - "request_order": Request kinds match Kinds in order
	// - "request_header": Step's request has Header set to Value
	// - "journal": Journal statuses match Status in order
	Type string `yaml:"type"`

	// Step indexes the scenario steps (request_contains, request_header).
	Step int `yaml:"step,omitempty"`

	Text   string   `yaml:"text,omitempty"`
	Count  int      `yaml:"count,omitempty"`
	Kinds  []string `yaml:"kinds,omitempty"`
	Header string   `yaml:"header,omitempty"`
	Value  string   `yaml:"value,omitempty"`
	Status []string `yaml:"status,omitempty"`
}

// Assertion type constants.
const (
	AssertRequestContains = "request_contains"
	AssertRequestCount    = "request_count"
	AssertRequestOrder    = "request_order"
	AssertRequestHeader   = "request_header"
	AssertJournal         = "journal"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Query == "" {
			return fmt.Errorf("steps[%d]: query is required", i)
		}
		switch step.Kind {
		case "", KindQuery, KindUpdate:
		default:
			return fmt.Errorf("steps[%d]: unknown kind %q", i, step.Kind)
		}
		if step.Reply != nil && (step.Reply.Status < 100 || step.Reply.Status > 599) {
			return fmt.Errorf("steps[%d].reply: status %d is not an HTTP status", i, step.Reply.Status)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, len(s.Steps)); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRequestContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for request_contains", index)
		}
	case AssertRequestCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for request_count", index)
		}
	case AssertRequestOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for request_order", index)
		}
	case AssertRequestHeader:
		if a.Header == "" {
			return fmt.Errorf("assertions[%d]: header is required for request_header", index)
		}
	case AssertJournal:
		if len(a.Status) == 0 {
			return fmt.Errorf("assertions[%d]: status list is required for journal", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if (a.Type == AssertRequestContains || a.Type == AssertRequestHeader) && (a.Step < 0 || a.Step >= steps) {
		return fmt.Errorf("assertions[%d]: step %d out of range", index, a.Step)
	}
	return nil
}
