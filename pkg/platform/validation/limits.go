package validation

import (
	"fmt"

	dErrors "badgeforge/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed request body size (256 KB).
	// Zone template layouts are the largest documents the editor saves;
	// anything beyond this indicates embedded binary content, which
	// belongs in the asset registry instead.
	MaxBodySize = 256 * 1024
)

// Slice element count limits
const (
	// MaxTags is the maximum number of tags per artifact.
	MaxTags = 20

	// MaxClaims is the maximum number of claim entries per credential type.
	MaxClaims = 100

	// MaxZones is the maximum number of zones per card template.
	MaxZones = 64

	// MaxCriteriaAssets is the maximum number of asset references in a
	// badge eligibility tree.
	MaxCriteriaAssets = 50

	// MaxEligibilityRules is the maximum number of rules per badge.
	MaxEligibilityRules = 50

	// MaxLocales is the maximum number of locale entries in a display block.
	MaxLocales = 20
)

// String element length limits
const (
	// MaxNameLength is the maximum length of an artifact display name.
	MaxNameLength = 200

	// MaxDescriptionLength is the maximum length of an artifact description.
	MaxDescriptionLength = 2000

	// MaxTagLength is the maximum length of an individual tag.
	MaxTagLength = 50

	// MaxURILength is the maximum length of a URI field (vct, schema,
	// rendering template, asset source).
	MaxURILength = 2048

	// MaxClaimPathLength is the maximum length of a claim path segment list
	// when joined.
	MaxClaimPathLength = 256

	// MaxUsernameLength is the maximum length of a login username.
	MaxUsernameLength = 100

	// MaxPasswordLength is the maximum length of a login password. Longer
	// inputs are rejected before hashing to bound bcrypt cost.
	MaxPasswordLength = 128

	// MaxAPIKeyLength is the maximum length of an Orbit API key.
	MaxAPIKeyLength = 512

	// MaxCommitMessageLength is the maximum length of a publish commit message.
	MaxCommitMessageLength = 500
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckEachStringLength validates that each string in a slice does not exceed the maximum length.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if len(v) > max {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
		}
	}
	return nil
}

// CheckRequired validates that a required string field is non-empty.
func CheckRequired(fieldName, value string) error {
	if value == "" {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is required", fieldName))
	}
	return nil
}
