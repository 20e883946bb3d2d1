// Package models defines zone templates: rectangular regions on a virtual
// card face, each bound to the content that renders inside it.
package models

import (
	"math"
	"time"

	id "badgeforge/pkg/domain"
)

// BindingKind selects what a zone renders.
type BindingKind string

const (
	BindingStatic BindingKind = "static"
	BindingClaim  BindingKind = "claim"
	BindingAsset  BindingKind = "asset"
)

func (k BindingKind) IsValid() bool {
	return k == BindingStatic || k == BindingClaim || k == BindingAsset
}

// AssetCriteria mirrors the asset resolver's query: role required, mediaType
// and tags optional, tags all-must-match.
type AssetCriteria struct {
	Role      string   `json:"role"`
	MediaType string   `json:"mediaType,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Binding ties a zone to its content. Exactly one of the payload fields is
// populated, matching Kind: static→Value, claim→ClaimPath, asset→Criteria.
type Binding struct {
	Kind      BindingKind    `json:"kind"`
	Value     string         `json:"value,omitempty"`
	ClaimPath string         `json:"claimPath,omitempty"`
	Criteria  *AssetCriteria `json:"criteria,omitempty"`
}

// Rect is a zone's position and size, in percent of the card face.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Intersection returns the shared area of two rects in percent². Disjoint
// rects and rects that only touch along an edge return zero.
func (r Rect) Intersection(o Rect) float64 {
	w := math.Min(r.X+r.W, o.X+o.W) - math.Max(r.X, o.X)
	h := math.Min(r.Y+r.H, o.Y+o.H) - math.Max(r.Y, o.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Zone is one rectangular region of a face.
type Zone struct {
	ID      string  `json:"id"`
	Label   string  `json:"label,omitempty"`
	Rect    Rect    `json:"rect"`
	Binding Binding `json:"binding"`
}

// ZoneFace holds the zones of one card side.
type ZoneFace struct {
	Zones []Zone `json:"zones"`
}

// Face names used in overlap warnings.
const (
	FaceFront = "front"
	FaceBack  = "back"
)

// ZoneTemplate is a complete two-sided card layout.
type ZoneTemplate struct {
	ID          id.TemplateID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Front       ZoneFace      `json:"front"`
	Back        ZoneFace      `json:"back"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy, so stored templates cannot be mutated through
// returned pointers.
func (t *ZoneTemplate) Clone() *ZoneTemplate {
	clone := *t
	clone.Front = t.Front.clone()
	clone.Back = t.Back.clone()
	return &clone
}

func (f ZoneFace) clone() ZoneFace {
	if f.Zones == nil {
		return ZoneFace{}
	}
	zones := make([]Zone, len(f.Zones))
	for i, z := range f.Zones {
		zones[i] = z
		if z.Binding.Criteria != nil {
			c := *z.Binding.Criteria
			c.Tags = append([]string(nil), z.Binding.Criteria.Tags...)
			zones[i].Binding.Criteria = &c
		}
	}
	return ZoneFace{Zones: zones}
}

// OverlapWarning reports two zones on the same face sharing area. Overlaps
// are advisory: the editor shows them, saves still succeed.
type OverlapWarning struct {
	Face  string  `json:"face"`
	ZoneA string  `json:"zoneA"`
	ZoneB string  `json:"zoneB"`
	Area  float64 `json:"area"`
}
