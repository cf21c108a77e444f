// Package contract validates request payloads against the embedded OpenAPI
// description of the club API.
package contract

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var spec []byte

// Validator checks values against component schemas of an OpenAPI document.
type Validator struct {
	doc *openapi3.T
}

// Load parses an OpenAPI document.
func Load(data []byte) (*Validator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load API contract: %w", err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, fmt.Errorf("API contract has no component schemas")
	}
	return &Validator{doc: doc}, nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns the validator for the embedded contract.
// It panics if the embedded document is broken, which tests guard against.
func Default() *Validator {
	defaultOnce.Do(func() {
		v, err := Load(spec)
		if err != nil {
			panic(err)
		}
		defaultValidator = v
	})
	return defaultValidator
}

// Document returns the parsed OpenAPI document.
func (v *Validator) Document() *openapi3.T {
	return v.doc
}

// Schemas lists the component schema names.
func (v *Validator) Schemas() []string {
	names := make([]string, 0, len(v.doc.Components.Schemas))
	for name := range v.doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks value against the named component schema. value is first
// converted to its JSON form so struct tags and omitempty apply.
func (v *Validator) Validate(schema string, value any) error {
	ref, ok := v.doc.Components.Schemas[schema]
	if !ok || ref.Value == nil {
		return fmt.Errorf("unknown schema %q", schema)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	return ref.Value.VisitJSON(generic)
}
