package results

import (
	"errors"
	"fmt"
)

// Mode selects how Normalize reshapes a solution sequence.
type Mode string

const (
	ModeSimple     Mode = "simple"
	ModeProperties Mode = "properties"
	ModeCustom     Mode = "custom"
)

// RowProcessor folds one row into the accumulated output of custom mode.
type RowProcessor func(row Row, acc []any) []any

// ParseOptions configures Normalize. The zero value selects simple mode.
type ParseOptions struct {
	Mode              Mode         `mapstructure:"type" json:"type,omitempty" yaml:"type,omitempty"`
	SubjectVariable   string       `mapstructure:"subjectVariable" json:"subjectVariable,omitempty" yaml:"subjectVariable,omitempty"`
	PredicateVariable string       `mapstructure:"predicateVariable" json:"predicateVariable,omitempty" yaml:"predicateVariable,omitempty"`
	ObjectVariable    string       `mapstructure:"objectVariable" json:"objectVariable,omitempty" yaml:"objectVariable,omitempty"`
	RowProcessor      RowProcessor `mapstructure:"rowProcessor" json:"-" yaml:"-"`
}

// ErrNoRowProcessor is returned for custom mode without a RowProcessor.
var ErrNoRowProcessor = errors.New("results: custom mode requires a row processor")

// Normalize reshapes res according to opts.
//
// Simple mode returns the boolean of an ASK result, or one
// map[string]string per row holding the bound head variables with
// compacted values. Properties mode returns
// map[subject]map[predicate]object, all compacted. Custom mode threads an
// accumulator through opts.RowProcessor and returns it.
func Normalize(res *Results, opts ParseOptions, c *Compactor) (any, error) {
	if res == nil {
		return nil, nil
	}
	if c == nil {
		c = NewCompactor(nil)
	}

	switch opts.Mode {
	case "", ModeSimple:
		return simple(res, c), nil
	case ModeProperties:
		return properties(res, opts, c), nil
	case ModeCustom:
		if opts.RowProcessor == nil {
			return nil, ErrNoRowProcessor
		}
		acc := []any{}
		for _, row := range res.Rows() {
			acc = opts.RowProcessor(row, acc)
		}
		return acc, nil
	default:
		return nil, fmt.Errorf("results: unknown parse mode %q", opts.Mode)
	}
}

func simple(res *Results, c *Compactor) any {
	if res.Boolean != nil {
		return *res.Boolean
	}
	if res.Results == nil {
		return nil
	}
	out := make([]map[string]string, 0, len(res.Results.Bindings))
	for _, row := range res.Results.Bindings {
		item := make(map[string]string, len(res.Head.Vars))
		for _, name := range res.Head.Vars {
			if b, ok := row[name]; ok {
				item[name] = c.Compact(b.Value)
			}
		}
		out = append(out, item)
	}
	return out
}

func properties(res *Results, opts ParseOptions, c *Compactor) map[string]map[string]string {
	subject := orDefault(opts.SubjectVariable, "s")
	predicate := orDefault(opts.PredicateVariable, "p")
	object := orDefault(opts.ObjectVariable, "o")

	out := map[string]map[string]string{}
	for _, row := range res.Rows() {
		s, sok := row[subject]
		p, pok := row[predicate]
		o, ook := row[object]
		if !sok || !pok || !ook {
			continue
		}
		key := c.Compact(s.Value)
		if out[key] == nil {
			out[key] = map[string]string{}
		}
		out[key][c.Compact(p.Value)] = c.Compact(o.Value)
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
