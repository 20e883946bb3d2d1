// Package models defines the Verifiable Credential Type document. A VCT
// describes how a credential of a given type is displayed and which claims it
// carries; the document is authored in the editor and published to a
// governance repository, so its JSON shape is part of the product.
package models

import (
	"strings"
	"time"

	id "badgeforge/pkg/domain"
)

// Format selects the credential format the type targets.
type Format string

const (
	FormatSDJWT  Format = "sd-jwt"
	FormatJSONLD Format = "json-ld"
)

func (f Format) IsValid() bool {
	return f == FormatSDJWT || f == FormatJSONLD
}

// Disclosure is the selective-disclosure policy of a claim.
type Disclosure string

const (
	DisclosureAlways  Disclosure = "always"
	DisclosureAllowed Disclosure = "allowed"
	DisclosureNever   Disclosure = "never"
)

func (d Disclosure) IsValid() bool {
	return d == DisclosureAlways || d == DisclosureAllowed || d == DisclosureNever
}

// Rendering carries the visual treatment for one locale's display entry.
type Rendering struct {
	LogoURI         string `json:"logoUri,omitempty"`
	LogoAltText     string `json:"logoAltText,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
}

// DisplayEntry is the per-locale presentation of the credential type.
// ClaimLayout lists claim paths (dotted form) in the order they appear on the
// rendered card; claims not listed are simply not shown for that locale.
type DisplayEntry struct {
	Locale      string     `json:"locale"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Rendering   *Rendering `json:"rendering,omitempty"`
	ClaimLayout []string   `json:"claimLayout,omitempty"`
}

// ClaimDisplay is the per-locale label for a single claim.
type ClaimDisplay struct {
	Locale      string `json:"locale"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Claim describes one claim of the credential. Path addresses the claim inside
// the credential payload; nested claims use multiple segments.
type Claim struct {
	Path    []string       `json:"path"`
	Display []ClaimDisplay `json:"display,omitempty"`
	SD      Disclosure     `json:"sd,omitempty"`
}

// PathString returns the dotted form of the claim path, e.g. "address.street".
func (c *Claim) PathString() string {
	return strings.Join(c.Path, ".")
}

// Property returns the top-level credential property the claim belongs to.
func (c *Claim) Property() string {
	if len(c.Path) == 0 {
		return ""
	}
	return c.Path[0]
}

// VCT is a Verifiable Credential Type document. The vct URI is the identity:
// it names the type and doubles as the lookup key in the store.
type VCT struct {
	VCT         id.VCTID       `json:"vct"`
	Format      Format         `json:"format"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	SchemaURI   string         `json:"schemaUri,omitempty"`
	Issuer      string         `json:"issuer,omitempty"`
	Display     []DisplayEntry `json:"display"`
	Claims      []Claim        `json:"claims"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Clone returns a deep copy, so stored documents cannot be mutated through
// returned pointers.
func (v *VCT) Clone() *VCT {
	clone := *v
	if v.Display != nil {
		clone.Display = make([]DisplayEntry, len(v.Display))
		for i, d := range v.Display {
			clone.Display[i] = d
			if d.Rendering != nil {
				r := *d.Rendering
				clone.Display[i].Rendering = &r
			}
			if d.ClaimLayout != nil {
				clone.Display[i].ClaimLayout = append([]string(nil), d.ClaimLayout...)
			}
		}
	}
	if v.Claims != nil {
		clone.Claims = make([]Claim, len(v.Claims))
		for i, c := range v.Claims {
			clone.Claims[i] = c
			clone.Claims[i].Path = append([]string(nil), c.Path...)
			if c.Display != nil {
				clone.Claims[i].Display = append([]ClaimDisplay(nil), c.Display...)
			}
		}
	}
	return &clone
}
