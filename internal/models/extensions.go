package models

import "time"

// Product extensions are optional, independently-shaped sub-records attached
// to an asset without widening the base schema. Each field is nil when that
// product recorded no data for the asset; consumers must treat nil as "no
// data", never as zero values. The store reads and writes each extension as
// an opaque JSONB blob keyed by product name.

// ProductExtensions groups the known per-product extension records.
type ProductExtensions struct {
	Component *ComponentExtension `json:"component,omitempty"`
	Vendor    *VendorExtension    `json:"vendor,omitempty"`
	Privacy   *PrivacyExtension   `json:"privacy,omitempty"`
}

// IsZero reports whether no product recorded any data.
func (e ProductExtensions) IsZero() bool {
	return e.Component == nil && e.Vendor == nil && e.Privacy == nil
}

// ComponentExtension carries software-component / SBOM data.
type ComponentExtension struct {
	Version        string   `json:"version,omitempty"`
	Supplier       string   `json:"supplier,omitempty"`
	Licenses       []string `json:"licenses,omitempty"`
	PackageURL     string   `json:"packageUrl,omitempty"`
	SBOMFormat     string   `json:"sbomFormat,omitempty"`
	ComponentCount int      `json:"componentCount,omitempty"`
}

// VendorExtension carries third-party vendor and contract data.
type VendorExtension struct {
	VendorName       string     `json:"vendorName,omitempty"`
	ContactEmail     string     `json:"contactEmail,omitempty"`
	ContractStart    *time.Time `json:"contractStart,omitempty"`
	ContractEnd      *time.Time `json:"contractEnd,omitempty"`
	SLATier          string     `json:"slaTier,omitempty"`
	LastReviewDate   *time.Time `json:"lastReviewDate,omitempty"`
	SecurityAttested bool       `json:"securityAttested,omitempty"`
}

// PrivacyExtension carries personal-data handling attributes. The stats
// aggregator counts the four boolean flags across the collection.
type PrivacyExtension struct {
	GDPRCompliant       bool       `json:"gdprCompliant,omitempty"`
	PIACompleted        bool       `json:"piaCompleted,omitempty"`
	CrossBorderTransfer bool       `json:"crossBorderTransfer,omitempty"`
	ThirdPartySharing   bool       `json:"thirdPartySharing,omitempty"`
	DataSubjects        []string   `json:"dataSubjects,omitempty"`
	RetentionPolicy     string     `json:"retentionPolicy,omitempty"`
	LastPIADate         *time.Time `json:"lastPiaDate,omitempty"`
}
