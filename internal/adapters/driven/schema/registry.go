// Package schema decodes remote documents through versioned schemas.
//
// Every stored document carries a schema_version. Decoding upgrades an
// older document step by step to the current version, fills the fields
// the document lacks with that version's defaults, and then maps it onto
// a typed struct. Unknown fields are ignored.
package schema

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// VersionKey is the document field holding the schema version.
const VersionKey = "schema_version"

// Upgrade rewrites a document of the previous version into its own version.
type Upgrade func(doc map[string]any) map[string]any

// Version describes one schema version of a collection.
type Version struct {
	// Number is the schema version, starting at 1.
	Number int

	// Defaults are applied to missing fields after upgrading.
	// Nested maps are merged key by key.
	Defaults map[string]any

	// Upgrade converts a document from Number-1. Unused for version 1.
	Upgrade Upgrade
}

// Registry holds the schema history of each collection.
type Registry struct {
	collections map[string][]Version
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{collections: make(map[string][]Version)}
}

// Register appends the next version of a collection's schema.
// Versions must be registered in order starting at 1.
func (r *Registry) Register(collection string, v Version) error {
	history := r.collections[collection]
	if v.Number != len(history)+1 {
		return fmt.Errorf("%w: %s: expected schema version %d, got %d",
			domain.ErrInvalidInput, collection, len(history)+1, v.Number)
	}
	if v.Number > 1 && v.Upgrade == nil {
		return fmt.Errorf("%w: %s: schema version %d has no upgrade", domain.ErrInvalidInput, collection, v.Number)
	}
	r.collections[collection] = append(history, v)
	return nil
}

// Current returns the latest schema version of a collection,
// or 0 if the collection is unknown.
func (r *Registry) Current(collection string) int {
	return len(r.collections[collection])
}

// Encode marshals v and stamps it with the current schema version.
func (r *Registry) Encode(collection string, v any) ([]byte, error) {
	current := r.Current(collection)
	if current == 0 {
		return nil, fmt.Errorf("%w: unknown collection %q", domain.ErrInvalidInput, collection)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s document: %w", collection, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encoding %s document: %w", collection, err)
	}
	doc[VersionKey] = current
	return json.Marshal(doc)
}

// Decode upgrades a stored document to the current schema and maps it
// onto out, which must be a pointer to a struct with json tags.
func (r *Registry) Decode(collection string, data []byte, out any) error {
	history := r.collections[collection]
	if len(history) == 0 {
		return fmt.Errorf("%w: unknown collection %q", domain.ErrInvalidInput, collection)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: malformed %s document: %v", domain.ErrValidation, collection, err)
	}

	version, err := documentVersion(doc)
	if err != nil {
		return fmt.Errorf("%w: %s document: %v", domain.ErrValidation, collection, err)
	}
	if version > len(history) {
		return fmt.Errorf("%w: %s document has schema version %d, newest known is %d",
			domain.ErrValidation, collection, version, len(history))
	}

	for _, v := range history[version:] {
		doc = v.Upgrade(doc)
	}
	doc = withDefaults(doc, history[len(history)-1].Defaults)
	delete(doc, VersionKey)

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("building %s decoder: %w", collection, err)
	}
	if err := decoder.Decode(doc); err != nil {
		return fmt.Errorf("%w: decoding %s document: %v", domain.ErrValidation, collection, err)
	}
	return nil
}

// documentVersion reads the schema version. Documents written before
// versioning have none and are version 1.
func documentVersion(doc map[string]any) (int, error) {
	raw, ok := doc[VersionKey]
	if !ok || raw == nil {
		return 1, nil
	}
	n, ok := raw.(float64)
	if !ok || n < 1 || n != float64(int(n)) {
		return 0, fmt.Errorf("invalid schema version %v", raw)
	}
	return int(n), nil
}

// withDefaults returns doc with every missing key taken from defaults.
func withDefaults(doc, defaults map[string]any) map[string]any {
	out := maps.Clone(doc)
	if out == nil {
		out = make(map[string]any, len(defaults))
	}
	for key, def := range defaults {
		cur, ok := out[key]
		if !ok || cur == nil {
			out[key] = cloneDefault(def)
			continue
		}
		nestedDefaults, isMap := def.(map[string]any)
		nestedDoc, docIsMap := cur.(map[string]any)
		if isMap && docIsMap {
			out[key] = withDefaults(nestedDoc, nestedDefaults)
		}
	}
	return out
}

func cloneDefault(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return withDefaults(nil, t)
	case []any:
		return append([]any(nil), t...)
	default:
		return v
	}
}
