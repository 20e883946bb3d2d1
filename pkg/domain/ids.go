// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"net/url"
	"regexp"

	"github.com/google/uuid"

	dErrors "badgeforge/pkg/domain-errors"
)

// SessionID identifies a login session.
type SessionID uuid.UUID

// Artifact IDs are author-facing slugs committed into governance repos,
// so they stay human-readable strings rather than UUIDs.
type (
	BadgeID    string
	TemplateID string
	AssetID    string
	SchemaID   string
)

// VCTID is the vct URI identifying a Verifiable Credential Type.
type VCTID string

// slugPattern matches the ids we accept for file-backed artifacts. Keeping the
// character set tight avoids path tricks when ids end up in GitHub file paths.
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

const maxSlugLength = 128

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseSessionID(s string) (SessionID, error) {
	if s == "" {
		return SessionID{}, dErrors.New(dErrors.CodeInvalidInput, "session ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid session ID format")
	}
	return SessionID(id), nil
}

func ParseBadgeID(s string) (BadgeID, error) {
	if err := checkSlug(s, "badge ID"); err != nil {
		return "", err
	}
	return BadgeID(s), nil
}

func ParseTemplateID(s string) (TemplateID, error) {
	if err := checkSlug(s, "template ID"); err != nil {
		return "", err
	}
	return TemplateID(s), nil
}

func ParseAssetID(s string) (AssetID, error) {
	if err := checkSlug(s, "asset ID"); err != nil {
		return "", err
	}
	return AssetID(s), nil
}

func ParseSchemaID(s string) (SchemaID, error) {
	if err := checkSlug(s, "schema ID"); err != nil {
		return "", err
	}
	return SchemaID(s), nil
}

// ParseVCTID validates that the value is an absolute URI, per the VCT metadata
// convention where the type identifier doubles as a resolvable URI.
func ParseVCTID(s string) (VCTID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "vct URI cannot be empty")
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "vct must be an absolute URI")
	}
	return VCTID(s), nil
}

// NewSessionID generates a fresh random session ID.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// String methods - for logging and debugging.

func (id SessionID) String() string  { return uuid.UUID(id).String() }
func (id BadgeID) String() string    { return string(id) }
func (id TemplateID) String() string { return string(id) }
func (id AssetID) String() string    { return string(id) }
func (id SchemaID) String() string   { return string(id) }
func (id VCTID) String() string      { return string(id) }

// IsNil checks - used for service-layer validation.

func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id BadgeID) IsNil() bool    { return id == "" }
func (id TemplateID) IsNil() bool { return id == "" }
func (id AssetID) IsNil() bool    { return id == "" }
func (id SchemaID) IsNil() bool   { return id == "" }
func (id VCTID) IsNil() bool      { return id == "" }

// checkSlug is the shared validation logic for string artifact ids.
func checkSlug(s, label string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > maxSlugLength {
		return dErrors.New(dErrors.CodeInvalidInput, label+" is too long")
	}
	if !slugPattern.MatchString(s) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return nil
}
