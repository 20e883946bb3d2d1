package service

import (
	"fmt"
	"strings"

	"badgeforge/internal/vct/models"
	dErrors "badgeforge/pkg/domain-errors"
	platformstrings "badgeforge/pkg/platform/strings"
)

// checkSchemaMapping validates the claim set against the schema's property
// names. A claim addresses a property through its first path segment, so
// nested claims count against the top-level property they live under.
//
// json-ld requires a 1:1 mapping: every property claimed exactly once, no
// claims outside the schema. sd-jwt may claim any subset, and several nested
// claims may share one property.
func checkSchemaMapping(format models.Format, claims []models.Claim, properties []string) error {
	claimed := make(map[string]bool, len(properties))
	for _, p := range properties {
		claimed[p] = false
	}

	var unknown, duplicate []string
	for _, c := range claims {
		prop := c.Property()
		was, ok := claimed[prop]
		if !ok {
			unknown = append(unknown, prop)
			continue
		}
		if was && format == models.FormatJSONLD {
			duplicate = append(duplicate, prop)
		}
		claimed[prop] = true
	}

	var missing []string
	if format == models.FormatJSONLD {
		for _, p := range properties {
			if !claimed[p] {
				missing = append(missing, p)
			}
		}
	}

	var parts []string
	if len(unknown) > 0 {
		parts = append(parts, "claims outside the schema: "+joinNames(unknown))
	}
	if len(duplicate) > 0 {
		parts = append(parts, "properties claimed more than once: "+joinNames(duplicate))
	}
	if len(missing) > 0 {
		parts = append(parts, "schema properties not claimed: "+joinNames(missing))
	}
	if len(parts) == 0 {
		return nil
	}
	return dErrors.New(dErrors.CodeValidation,
		fmt.Sprintf("%s schema mapping: %s", format, strings.Join(parts, "; ")))
}

func joinNames(names []string) string {
	return strings.Join(platformstrings.DedupeAndTrim(names), ", ")
}
