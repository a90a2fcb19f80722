package models

import (
	"errors"
	"fmt"
	"time"
)

// Asset is the root inventory entity: a tracked organizational system, data
// store, vendor or process with classification, ownership and risk
// attributes. Identity (ID, OrganizationID) is assigned by the store at
// creation and never changes for the asset's lifetime.
type Asset struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`

	Owner     string `json:"owner"`
	Custodian string `json:"custodian,omitempty"`

	Location  Location `json:"location,omitempty"`
	IPAddress string   `json:"ipAddress,omitempty"`

	Criticality        string `json:"criticality,omitempty"`
	DataClassification string `json:"dataClassification,omitempty"`
	BusinessValue      string `json:"businessValue,omitempty"`
	EncryptionStatus   string `json:"encryptionStatus,omitempty"`

	Status    string  `json:"status,omitempty"`
	RiskScore float64 `json:"riskScore"`

	ComplianceFrameworks []string          `json:"complianceFrameworks,omitempty"`
	Tags                 []string          `json:"tags,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`

	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	LastAssessedAt *time.Time `json:"lastAssessedAt,omitempty"`
	LastReviewedAt *time.Time `json:"lastReviewedAt,omitempty"`
	NextReviewAt   *time.Time `json:"nextReviewAt,omitempty"`

	Relationships   []Relationship  `json:"relationships,omitempty"`
	Dependencies    []Dependency    `json:"dependencies,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`

	Extensions ProductExtensions `json:"extensions,omitzero"`
}

// Relationship is a directed edge from the owning asset to another asset.
// RelatedAssetID is a weak reference: the related asset may have been
// deleted, in which case RelatedAssetName degrades to "" at display time.
type Relationship struct {
	ID               string `json:"id,omitempty"`
	RelatedAssetID   string `json:"relatedAssetId"`
	RelatedAssetName string `json:"relatedAssetName,omitempty"`
	Kind             string `json:"kind"` // depends-on, hosts, processes, stores, ...
	Strength         string `json:"strength,omitempty"`
	DataFlow         string `json:"dataFlow,omitempty"` // inbound, outbound, bidirectional
	PersonalData     bool   `json:"personalData,omitempty"`
}

// Dependency records operational reliance on another asset.
type Dependency struct {
	ID              string     `json:"id,omitempty"`
	DependsOnID     string     `json:"dependsOnId"`
	DependsOnName   string     `json:"dependsOnName,omitempty"`
	Type            string     `json:"type"` // technical, operational, contractual, ...
	Criticality     string     `json:"criticality,omitempty"`
	IsActive        bool       `json:"isActive"`
	LastValidatedAt *time.Time `json:"lastValidatedAt,omitempty"`
	RiskLevel       string     `json:"riskLevel,omitempty"`
	Bidirectional   bool       `json:"bidirectional,omitempty"`
}

// Vulnerability is a finding attached to an asset.
type Vulnerability struct {
	ID           string     `json:"id,omitempty"`
	CVE          string     `json:"cve,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Severity     string     `json:"severity,omitempty"`
	CVSSScore    float64    `json:"cvssScore,omitempty"`
	Status       string     `json:"status"` // open, in-progress, resolved, accepted, false-positive
	DiscoveredAt *time.Time `json:"discoveredAt,omitempty"`
}

// ErrInvalid marks validation failures so callers can tell bad input from
// collaborator failures with errors.Is.
var ErrInvalid = errors.New("invalid asset")

// Validate checks the invariants the engine relies on. Out-of-range risk
// scores are an error, not clamped, so callers can surface the bad input.
// Every failure wraps ErrInvalid.
func (a *Asset) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if a.Owner == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalid)
	}
	if a.RiskScore < 0 || a.RiskScore > 100 {
		return fmt.Errorf("%w: risk score %.1f outside [0,100]", ErrInvalid, a.RiskScore)
	}
	if a.Criticality != "" && !ValidCriticality(a.Criticality) {
		return fmt.Errorf("%w: unknown criticality %q", ErrInvalid, a.Criticality)
	}
	if a.Status != "" && !ValidStatus(a.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, a.Status)
	}
	if a.DataClassification != "" && !ValidClassification(a.DataClassification) {
		return fmt.Errorf("%w: unknown data classification %q", ErrInvalid, a.DataClassification)
	}
	return nil
}

// Normalize collapses duplicate tags and compliance frameworks. First
// occurrence wins so user-entered display order is preserved.
func (a *Asset) Normalize() {
	a.Tags = dedup(a.Tags)
	a.ComplianceFrameworks = dedup(a.ComplianceFrameworks)
}

func dedup(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// HasOpenVulnerabilities reports whether any finding is still open or in
// progress.
func (a *Asset) HasOpenVulnerabilities() bool {
	for _, v := range a.Vulnerabilities {
		if OpenVuln(v.Status) {
			return true
		}
	}
	return false
}
