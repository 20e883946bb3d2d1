// Package models defines the badge definition document. Badges are authored in
// the editor and committed wholesale into governance repositories, so the JSON
// field names here are the on-disk and on-the-wire artifact format.
package models

import (
	"time"

	id "badgeforge/pkg/domain"
)

// Status is the badge lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusPublished
}

// RuleOperator compares a subject attribute against a rule value.
type RuleOperator string

const (
	OperatorEquals      RuleOperator = "equals"
	OperatorNotEquals   RuleOperator = "not-equals"
	OperatorGreaterThan RuleOperator = "greater-than"
	OperatorLessThan    RuleOperator = "less-than"
	OperatorContains    RuleOperator = "contains"
	OperatorExists      RuleOperator = "exists"
)

// IsValid reports whether the operator is in the supported set.
func (o RuleOperator) IsValid() bool {
	switch o {
	case OperatorEquals, OperatorNotEquals, OperatorGreaterThan,
		OperatorLessThan, OperatorContains, OperatorExists:
		return true
	}
	return false
}

// RequiresValue reports whether the operator compares against a value.
// The exists operator only checks attribute presence.
func (o RuleOperator) RequiresValue() bool {
	return o != OperatorExists
}

// RuleLogic combines eligibility rules.
type RuleLogic string

const (
	LogicAll RuleLogic = "all"
	LogicAny RuleLogic = "any"
)

// IsValid reports whether the logic is one of the supported combinators.
func (l RuleLogic) IsValid() bool {
	return l == LogicAll || l == LogicAny
}

// EligibilityRule is a single attribute predicate.
type EligibilityRule struct {
	Attribute string       `json:"attribute"`
	Operator  RuleOperator `json:"operator"`
	Value     any          `json:"value,omitempty"`
}

// EvidenceRequirement describes one piece of evidence a badge application
// must or may carry.
type EvidenceRequirement struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// BadgeDefinition is the complete badge artifact as persisted in badges.json.
type BadgeDefinition struct {
	ID               id.BadgeID            `json:"id"`
	SchemaID         id.SchemaID           `json:"schemaId,omitempty"`
	Name             string                `json:"name"`
	Description      string                `json:"description,omitempty"`
	CategoryID       string                `json:"categoryId,omitempty"`
	EligibilityRules []EligibilityRule     `json:"eligibilityRules"`
	RuleLogic        RuleLogic             `json:"ruleLogic"`
	EvidenceConfig   []EvidenceRequirement `json:"evidenceConfig,omitempty"`
	ProofMethod      string                `json:"proofMethod,omitempty"`
	TemplateURI      string                `json:"templateUri,omitempty"`
	Status           Status                `json:"status"`
	Version          int                   `json:"version"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
	Author           string                `json:"author,omitempty"`
}

// IsPublished reports whether the badge left the draft state.
func (b *BadgeDefinition) IsPublished() bool {
	return b.Status == StatusPublished
}

// Clone returns a deep copy so stores can hand out documents without sharing
// slice backing arrays with callers.
func (b *BadgeDefinition) Clone() *BadgeDefinition {
	clone := *b
	if b.EligibilityRules != nil {
		clone.EligibilityRules = make([]EligibilityRule, len(b.EligibilityRules))
		copy(clone.EligibilityRules, b.EligibilityRules)
	}
	if b.EvidenceConfig != nil {
		clone.EvidenceConfig = make([]EvidenceRequirement, len(b.EvidenceConfig))
		copy(clone.EvidenceConfig, b.EvidenceConfig)
	}
	return &clone
}
