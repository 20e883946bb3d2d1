// Package models defines registry assets (logos, backgrounds, signatures)
// and the criteria zones use to select them.
package models

import (
	"sort"
	"strings"
	"time"

	id "badgeforge/pkg/domain"
)

// Asset is one entry of the asset registry. URI points at the binary; the
// registry itself stores metadata only.
type Asset struct {
	ID        id.AssetID `json:"id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	MediaType string     `json:"mediaType,omitempty"`
	URI       string     `json:"uri"`
	Tags      []string   `json:"tags,omitempty"`
	Owner     string     `json:"owner,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Clone returns a copy whose tag slice is independent of the original.
func (a *Asset) Clone() *Asset {
	clone := *a
	if a.Tags != nil {
		clone.Tags = append([]string(nil), a.Tags...)
	}
	return &clone
}

// HasTag reports whether the asset carries the given tag.
func (a *Asset) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Criteria selects assets for zone preview resolution: role must match,
// mediaType when given, and every listed tag must be present.
type Criteria struct {
	Role      string   `json:"role"`
	MediaType string   `json:"mediaType,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// CacheKey returns the canonical "role|mediaType|tag,tag" form. Tag order in
// the request does not produce distinct cache entries.
func (c Criteria) CacheKey() string {
	tags := append([]string(nil), c.Tags...)
	sort.Strings(tags)
	return c.Role + "|" + c.MediaType + "|" + strings.Join(tags, ",")
}

// Matches reports whether the asset satisfies the criteria.
func (c Criteria) Matches(a *Asset) bool {
	if a.Role != c.Role {
		return false
	}
	if c.MediaType != "" && a.MediaType != c.MediaType {
		return false
	}
	for _, tag := range c.Tags {
		if !a.HasTag(tag) {
			return false
		}
	}
	return true
}
