package streams

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaRegistry holds compiled payload schemas keyed by event type and
// payload version.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[string]map[string]*jsonschema.Schema
}

func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[string]map[string]*jsonschema.Schema)}
}

// Register compiles schemaBytes and stores it for eventType/version.
func (r *SchemaRegistry) Register(eventType, version string, schemaBytes []byte) error {
	if eventType == "" || version == "" {
		return fmt.Errorf("event type and version are required")
	}
	if len(schemaBytes) == 0 {
		return fmt.Errorf("schema for %s %s is empty", eventType, version)
	}

	compiler := jsonschema.NewCompiler()
	resource := eventType + "." + version + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[eventType]; !ok {
		r.schemas[eventType] = make(map[string]*jsonschema.Schema)
	}
	r.schemas[eventType][version] = compiled
	return nil
}

// Validate checks payload against the schema registered for
// eventType/version.
func (r *SchemaRegistry) Validate(eventType, version string, payload []byte) error {
	r.mu.RLock()
	schema, ok := r.schemas[eventType][version]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no schema registered for event %q version %q", eventType, version)
	}
	if len(payload) == 0 {
		return fmt.Errorf("payload is empty")
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s %s payload validation failed: %w", eventType, version, err)
	}
	return nil
}
