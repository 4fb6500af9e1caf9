/*
 * Copyright (C) 2020-2025 Arm Limited or its affiliates and Contributors. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 */

package pagination

import (
	mapset "github.com/deckarep/golang-set/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-viper/mapstructure/v2"

	"github.com/pageflow-go/pageflow/field"
)

// reservedOptionKeys lists the query keys consumed by the parser rather than
// forwarded to the fetch operation.
var reservedOptionKeys = mapset.NewSet("maxApiCalls", "maxResults", "pageSize", "autoPaginate", "highWaterMark")

// StreamOptions tunes the sequence produced for a call.
type StreamOptions struct {
	// HighWaterMark bounds how many items the sequence may buffer ahead of
	// consumption. Nil means the default applies.
	HighWaterMark *int `mapstructure:"highWaterMark"`
}

func (o StreamOptions) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.HighWaterMark, validation.Min(0)),
	)
}

// Descriptor is the normalised form of the arguments of a paginated call.
type Descriptor struct {
	// Query holds what is forwarded to the fetch operation, stripped of the
	// reserved option keys. Never nil.
	Query map[string]any
	// RawQuery holds a non-mapping query value when the caller supplied one
	// (e.g. a plain identifier). When set it is forwarded to the fetch
	// operation instead of Query.
	RawQuery      any
	AutoPaginate  bool
	MaxAPICalls   int
	MaxResults    int
	Callback      AggregateCallback
	StreamOptions StreamOptions
}

func (d *Descriptor) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Query, validation.NotNil),
		validation.Field(&d.MaxAPICalls, validation.Min(Unbounded)),
		validation.Field(&d.MaxResults, validation.Min(Unbounded)),
		validation.Field(&d.StreamOptions),
	)
}

// InitialQuery returns what the first fetch of the call should receive.
func (d *Descriptor) InitialQuery() any {
	if d.RawQuery != nil {
		return d.RawQuery
	}
	return d.Query
}

// callOptions is the decoding target for the reserved option keys.
type callOptions struct {
	MaxAPICalls   *int  `mapstructure:"maxApiCalls"`
	MaxResults    *int  `mapstructure:"maxResults"`
	PageSize      *int  `mapstructure:"pageSize"`
	AutoPaginate  *bool `mapstructure:"autoPaginate"`
	HighWaterMark *int  `mapstructure:"highWaterMark"`
}

// ParseArguments normalises the variable-shaped argument list of a paginated
// call into a Descriptor. It is a pure transform with no error conditions:
// every input shape degrades to defaults.
//
// A callable first element is the callback (the query is then empty);
// otherwise a present first element is the query, even when it is not a
// mapping. A callable last element, when distinct from the first, is the
// callback. Reserved option keys are extracted from a mapping query and
// removed from what gets forwarded to the fetch operation.
func ParseArguments(args ...any) *Descriptor {
	descriptor := &Descriptor{
		Query:        map[string]any{},
		AutoPaginate: true,
		MaxAPICalls:  Unbounded,
		MaxResults:   Unbounded,
	}
	if len(args) == 0 {
		return descriptor
	}
	if callback, ok := asAggregateCallback(args[0]); ok {
		descriptor.Callback = callback
	} else if args[0] != nil {
		if query, ok := args[0].(map[string]any); ok {
			descriptor.Query = query
		} else {
			descriptor.RawQuery = args[0]
		}
	}
	if len(args) > 1 {
		if callback, ok := asAggregateCallback(args[len(args)-1]); ok {
			descriptor.Callback = callback
		}
	}
	descriptor.extractOptions()
	return descriptor
}

func (d *Descriptor) extractOptions() {
	optionValues, rest := splitQuery(d.Query)
	d.Query = rest
	var options callOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &options,
		WeaklyTypedInput: true,
	})
	if err != nil || decoder.Decode(optionValues) != nil {
		// Unusable option values degrade to defaults.
		return
	}
	d.MaxAPICalls = field.Optional(options.MaxAPICalls, Unbounded)
	switch {
	case options.MaxResults != nil:
		d.MaxResults = *options.MaxResults
	case options.PageSize != nil:
		d.MaxResults = *options.PageSize
	}
	d.StreamOptions.HighWaterMark = options.HighWaterMark
	switch {
	case options.AutoPaginate != nil:
		d.AutoPaginate = *options.AutoPaginate
	case d.MaxResults > Unbounded:
		// A caller asking for a bounded result count wants a single finite
		// group of pages, not open ended streaming.
		d.AutoPaginate = false
	}
}

// splitQuery separates the reserved option keys of a query from the entries
// destined for the fetch operation.
func splitQuery(query map[string]any) (options map[string]any, rest map[string]any) {
	options = map[string]any{}
	rest = map[string]any{}
	for key, value := range query {
		if reservedOptionKeys.Contains(key) {
			options[key] = value
		} else {
			rest[key] = value
		}
	}
	return
}

// asAggregateCallback recognises the callable shapes a caller may pass as a
// completion callback.
func asAggregateCallback(value any) (AggregateCallback, bool) {
	switch callback := value.(type) {
	case AggregateCallback:
		return callback, callback != nil
	case func(error, []any, ...any):
		if callback == nil {
			return nil, false
		}
		return callback, true
	case func(error, []any):
		if callback == nil {
			return nil, false
		}
		return func(err error, results []any, _ ...any) {
			callback(err, results)
		}, true
	}
	return nil, false
}
