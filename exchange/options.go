package exchange

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/pneff/databorg-client/results"
)

// Options configures how one request is processed. Keys the pipeline does
// not know are kept in Extra for custom stages.
type Options struct {
	// RawResults skips normalization and returns the transport response.
	RawResults bool `mapstructure:"rawResults" json:"rawResults,omitempty" yaml:"rawResults,omitempty"`

	// IncludeRawResults attaches the unparsed JSON response under "_raw".
	IncludeRawResults bool `mapstructure:"includeRawResults" json:"includeRawResults,omitempty" yaml:"includeRawResults,omitempty"`

	// Frame is a JSON-LD frame applied to graph results.
	Frame map[string]any `mapstructure:"frame" json:"frame,omitempty" yaml:"frame,omitempty"`

	Parsing results.ParseOptions `mapstructure:"parsing" json:"parsing,omitempty" yaml:"parsing,omitempty"`

	Extra map[string]any `mapstructure:",remain" json:"-" yaml:"-"`
}

// DecodeOptions converts a loosely typed option map (from configuration
// files, catalog entries or command-line flags) into Options.
func DecodeOptions(raw map[string]any) (Options, error) {
	var opts Options
	if len(raw) == 0 {
		return opts, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Options{}, fmt.Errorf("exchange: options decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Options{}, fmt.Errorf("exchange: decode options: %w", err)
	}
	return opts, nil
}
