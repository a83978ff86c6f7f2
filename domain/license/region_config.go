package license

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RegionConfig is an ordered bag of region-specific fields (county, premise
// type, verification status, ...). Keys are opaque to the pipeline. Insertion
// order is preserved so serialization to storage is deterministic.
//
// Values are restricted to the JSON variants: nil, bool, string, float64,
// int, []any, and map[string]any. Anything else is rejected by Set.
type RegionConfig struct {
	keys   []string
	values map[string]any
}

// NewRegionConfig creates an empty RegionConfig.
func NewRegionConfig() RegionConfig {
	return RegionConfig{values: map[string]any{}}
}

// Set stores a value under key, appending the key on first use.
// Returns an error when the value is not a JSON variant.
func (rc *RegionConfig) Set(key string, value any) error {
	if !jsonVariant(value) {
		return fmt.Errorf("region config %q: unsupported value type %T", key, value)
	}
	if rc.values == nil {
		rc.values = map[string]any{}
	}
	if _, ok := rc.values[key]; !ok {
		rc.keys = append(rc.keys, key)
	}
	rc.values[key] = value
	return nil
}

// SetDefault stores value under key only when the key is absent.
func (rc *RegionConfig) SetDefault(key string, value any) error {
	if rc.values != nil {
		if _, ok := rc.values[key]; ok {
			return nil
		}
	}
	return rc.Set(key, value)
}

// Get returns the value for key and whether it is present.
func (rc RegionConfig) Get(key string) (any, bool) {
	v, ok := rc.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (rc RegionConfig) Keys() []string {
	keys := make([]string, len(rc.keys))
	copy(keys, rc.keys)
	return keys
}

// Len returns the number of fields.
func (rc RegionConfig) Len() int { return len(rc.keys) }

// Clone returns a copy sharing no state with the receiver.
func (rc RegionConfig) Clone() RegionConfig {
	out := NewRegionConfig()
	for _, k := range rc.keys {
		out.keys = append(out.keys, k)
		out.values[k] = rc.values[k]
	}
	return out
}

// MarshalJSON serializes the fields as a JSON object in insertion order.
func (rc RegionConfig) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range rc.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(rc.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON rebuilds the bag from a JSON object. Key order follows the
// document order of the input.
func (rc *RegionConfig) UnmarshalJSON(data []byte) error {
	*rc = NewRegionConfig()

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("region config: expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("region config: non-string key %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if err := rc.Set(key, normalizeJSONValue(value)); err != nil {
			return err
		}
	}
	return nil
}

// RegionConfigFromMap builds a RegionConfig from a plain map. Keys are added
// in the order given by keys; map entries not listed are skipped.
func RegionConfigFromMap(keys []string, values map[string]any) (RegionConfig, error) {
	rc := NewRegionConfig()
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		if err := rc.Set(k, v); err != nil {
			return RegionConfig{}, err
		}
	}
	return rc, nil
}

func jsonVariant(v any) bool {
	switch v.(type) {
	case nil, bool, string, float64, int, int64, json.Number, []any, map[string]any:
		return true
	}
	return false
}

func normalizeJSONValue(v any) any {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}
