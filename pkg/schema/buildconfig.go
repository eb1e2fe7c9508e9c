package schema

import (
	"encoding/json"
	"fmt"
)

// FieldType is the UI input kind a host renders for a configuration field.
type FieldType string

const (
	FieldMessageText FieldType = "message_text"
	FieldSecret      FieldType = "secret"
	FieldDropdown    FieldType = "dropdown"
	FieldLink        FieldType = "link"
	FieldString      FieldType = "str"
	FieldMultiselect FieldType = "multiselect"
	FieldHidden      FieldType = "hidden"
)

// FieldConfig is the host-visible state of a single node field.
type FieldConfig struct {
	Name          string    `json:"name"`
	DisplayName   string    `json:"display_name"`
	Type          FieldType `json:"type"`
	Value         any       `json:"value"`
	Options       []string  `json:"options,omitempty"`
	Info          string    `json:"info,omitempty"`
	Required      bool      `json:"required,omitempty"`
	Advanced      bool      `json:"advanced,omitempty"`
	Dynamic       bool      `json:"dynamic,omitempty"`
	RefreshButton bool      `json:"refresh_button,omitempty"`
}

// BuildConfig is a node's full configuration keyed by field name.
type BuildConfig map[string]*FieldConfig

// Field returns the named field, creating an empty one if the host omitted it.
func (c BuildConfig) Field(name string) *FieldConfig {
	f, ok := c[name]
	if !ok || f == nil {
		f = &FieldConfig{Name: name}
		c[name] = f
	}
	return f
}

// String returns a field's value as a string. Non-string values yield "".
func (c BuildConfig) String(name string) string {
	f, ok := c[name]
	if !ok || f == nil {
		return ""
	}
	s, _ := f.Value.(string)
	return s
}

// Strings returns a field's value as a string slice. A lone string is
// promoted to a one-element slice; JSON-decoded []any values are accepted.
func (c BuildConfig) Strings(name string) []string {
	f, ok := c[name]
	if !ok || f == nil {
		return nil
	}
	switch v := f.Value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// SetValue sets a field's value.
func (c BuildConfig) SetValue(name string, value any) {
	c.Field(name).Value = value
}

// SetOptions replaces a field's selectable options.
func (c BuildConfig) SetOptions(name string, options []string) {
	c.Field(name).Options = options
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (c BuildConfig) Clone() BuildConfig {
	out := make(BuildConfig, len(c))
	for k, f := range c {
		if f == nil {
			continue
		}
		cp := *f
		cp.Options = append(f.Options[:0:0], f.Options...)
		if v, ok := f.Value.([]string); ok {
			cp.Value = append(v[:0:0], v...)
		}
		out[k] = &cp
	}
	return out
}

// MarshalBuildConfig encodes a BuildConfig for persistence.
func MarshalBuildConfig(c BuildConfig) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal build config: %w", err)
	}
	return data, nil
}

// UnmarshalBuildConfig decodes a persisted BuildConfig.
func UnmarshalBuildConfig(data []byte) (BuildConfig, error) {
	var c BuildConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, NewError(ErrCodeValidation, "invalid build config").WithCause(err)
	}
	if c == nil {
		c = BuildConfig{}
	}
	return c, nil
}
