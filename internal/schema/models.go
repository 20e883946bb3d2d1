// Package schema is the credential schema registry. Schemas are authored
// elsewhere; the editor registers them here so badges can reference them and
// VCT claim mappings can be validated against their properties.
package schema

import (
	"time"

	id "badgeforge/pkg/domain"
)

// Property is one attribute a credential schema defines.
type Property struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// CredentialSchema is the registered schema document as stored in schemas.json.
type CredentialSchema struct {
	ID         id.SchemaID `json:"id"`
	URI        string      `json:"uri,omitempty"`
	Name       string      `json:"name"`
	Version    string      `json:"version,omitempty"`
	Properties []Property  `json:"properties"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// PropertyNames returns the declared property names in order.
func (s *CredentialSchema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for _, p := range s.Properties {
		names = append(names, p.Name)
	}
	return names
}

// HasProperty reports whether the schema declares the named property.
func (s *CredentialSchema) HasProperty(name string) bool {
	for _, p := range s.Properties {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s *CredentialSchema) Clone() *CredentialSchema {
	clone := *s
	if s.Properties != nil {
		clone.Properties = make([]Property, len(s.Properties))
		copy(clone.Properties, s.Properties)
	}
	return &clone
}
