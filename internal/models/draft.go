package models

import "time"

// AssetDraft is the caller-supplied input for creating an asset, either
// one-off or as a record of a bulk import. Identity and timestamps are
// assigned by the store; drafts never carry them.
type AssetDraft struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Type        string `json:"type" validate:"required,max=100"`
	Category    string `json:"category" validate:"max=100"`
	Subcategory string `json:"subcategory" validate:"max=100"`

	Owner     string `json:"owner" validate:"required,max=255"`
	Custodian string `json:"custodian" validate:"max=255"`

	Location  Location `json:"location"`
	IPAddress string   `json:"ipAddress" validate:"omitempty,ip"`

	Criticality        string  `json:"criticality"`
	DataClassification string  `json:"dataClassification"`
	BusinessValue      string  `json:"businessValue" validate:"max=100"`
	EncryptionStatus   string  `json:"encryptionStatus" validate:"max=100"`
	Status             string  `json:"status"`
	RiskScore          float64 `json:"riskScore" validate:"gte=0,lte=100"`

	ComplianceFrameworks []string          `json:"complianceFrameworks"`
	Tags                 []string          `json:"tags"`
	Metadata             map[string]string `json:"metadata"`

	NextReviewAt *time.Time `json:"nextReviewAt"`

	Relationships   []Relationship  `json:"relationships"`
	Dependencies    []Dependency    `json:"dependencies"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`

	Extensions ProductExtensions `json:"extensions,omitzero"`
}

// AssetPatch is a partial update. Nil fields are left untouched; non-nil
// slices replace the stored value wholesale (edges are never patched
// incrementally).
type AssetPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Type        *string `json:"type,omitempty" validate:"omitempty,max=100"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=100"`
	Subcategory *string `json:"subcategory,omitempty" validate:"omitempty,max=100"`

	Owner     *string `json:"owner,omitempty" validate:"omitempty,max=255"`
	Custodian *string `json:"custodian,omitempty" validate:"omitempty,max=255"`

	Location  *Location `json:"location,omitempty"`
	IPAddress *string   `json:"ipAddress,omitempty" validate:"omitempty,ip"`

	Criticality        *string  `json:"criticality,omitempty"`
	DataClassification *string  `json:"dataClassification,omitempty"`
	BusinessValue      *string  `json:"businessValue,omitempty" validate:"omitempty,max=100"`
	EncryptionStatus   *string  `json:"encryptionStatus,omitempty" validate:"omitempty,max=100"`
	Status             *string  `json:"status,omitempty"`
	RiskScore          *float64 `json:"riskScore,omitempty" validate:"omitempty,gte=0,lte=100"`

	ComplianceFrameworks []string          `json:"complianceFrameworks,omitempty"`
	Tags                 []string          `json:"tags,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`

	LastAssessedAt *time.Time `json:"lastAssessedAt,omitempty"`
	LastReviewedAt *time.Time `json:"lastReviewedAt,omitempty"`
	NextReviewAt   *time.Time `json:"nextReviewAt,omitempty"`

	Relationships   []Relationship  `json:"relationships,omitempty"`
	Dependencies    []Dependency    `json:"dependencies,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`

	Extensions *ProductExtensions `json:"extensions,omitempty"`
}

// Validate checks draft invariants beyond struct tags: the two-casing enum
// fields and the risk score range.
func (d *AssetDraft) Validate() error {
	a := Asset{
		Name:               d.Name,
		Owner:              d.Owner,
		RiskScore:          d.RiskScore,
		Criticality:        d.Criticality,
		Status:             d.Status,
		DataClassification: d.DataClassification,
	}
	return a.Validate()
}

// Apply overlays the patch onto an asset. Identity and creation time are
// never touched.
func (p *AssetPatch) Apply(a *Asset) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Subcategory != nil {
		a.Subcategory = *p.Subcategory
	}
	if p.Owner != nil {
		a.Owner = *p.Owner
	}
	if p.Custodian != nil {
		a.Custodian = *p.Custodian
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.IPAddress != nil {
		a.IPAddress = *p.IPAddress
	}
	if p.Criticality != nil {
		a.Criticality = *p.Criticality
	}
	if p.DataClassification != nil {
		a.DataClassification = *p.DataClassification
	}
	if p.BusinessValue != nil {
		a.BusinessValue = *p.BusinessValue
	}
	if p.EncryptionStatus != nil {
		a.EncryptionStatus = *p.EncryptionStatus
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.RiskScore != nil {
		a.RiskScore = *p.RiskScore
	}
	if p.ComplianceFrameworks != nil {
		a.ComplianceFrameworks = p.ComplianceFrameworks
	}
	if p.Tags != nil {
		a.Tags = p.Tags
	}
	if p.Metadata != nil {
		a.Metadata = p.Metadata
	}
	if p.LastAssessedAt != nil {
		a.LastAssessedAt = p.LastAssessedAt
	}
	if p.LastReviewedAt != nil {
		a.LastReviewedAt = p.LastReviewedAt
	}
	if p.NextReviewAt != nil {
		a.NextReviewAt = p.NextReviewAt
	}
	if p.Relationships != nil {
		a.Relationships = p.Relationships
	}
	if p.Dependencies != nil {
		a.Dependencies = p.Dependencies
	}
	if p.Vulnerabilities != nil {
		a.Vulnerabilities = p.Vulnerabilities
	}
	if p.Extensions != nil {
		a.Extensions = *p.Extensions
	}
	a.Normalize()
}
