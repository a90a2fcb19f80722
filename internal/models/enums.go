package models

import "strings"

// The inventory carries two historical naming conventions for the same
// enum values ("Critical" and "critical"). Canonicalize once here; filter,
// sort, stats and graph code compare canonical forms only. Original casing
// is preserved on the asset for display.

// Criticality is the canonical (lowercase) criticality value.
type Criticality string

const (
	CriticalityCritical Criticality = "critical"
	CriticalityHigh     Criticality = "high"
	CriticalityMedium   Criticality = "medium"
	CriticalityLow      Criticality = "low"
)

// Status is the canonical lifecycle status value.
type Status string

const (
	StatusActive           Status = "active"
	StatusInactive         Status = "inactive"
	StatusInProcurement    Status = "in-procurement"
	StatusDecommissioned   Status = "decommissioned"
	StatusUnderMaintenance Status = "under-maintenance"
)

// DataClassification is the canonical data classification value.
type DataClassification string

const (
	ClassificationPublic       DataClassification = "public"
	ClassificationInternal     DataClassification = "internal"
	ClassificationConfidential DataClassification = "confidential"
	ClassificationRestricted   DataClassification = "restricted"
)

// VulnStatus is the lifecycle status of a vulnerability finding.
type VulnStatus string

const (
	VulnOpen          VulnStatus = "open"
	VulnInProgress    VulnStatus = "in-progress"
	VulnResolved      VulnStatus = "resolved"
	VulnAccepted      VulnStatus = "accepted"
	VulnFalsePositive VulnStatus = "false-positive"
)

// Canonical lowercases and trims an enum value so that the two historical
// casings compare equal. Empty input stays empty.
func Canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CanonicalCriticality maps either casing to its Criticality value.
func CanonicalCriticality(s string) Criticality {
	return Criticality(Canonical(s))
}

// CanonicalStatus maps either casing to its Status value. Spaces and
// underscores in legacy values ("In Procurement") normalize to hyphens.
func CanonicalStatus(s string) Status {
	c := Canonical(s)
	c = strings.ReplaceAll(c, " ", "-")
	c = strings.ReplaceAll(c, "_", "-")
	return Status(c)
}

// CanonicalClassification maps either casing to its DataClassification value.
func CanonicalClassification(s string) DataClassification {
	return DataClassification(Canonical(s))
}

// CanonicalVulnStatus maps either casing to its VulnStatus value.
func CanonicalVulnStatus(s string) VulnStatus {
	c := Canonical(s)
	c = strings.ReplaceAll(c, " ", "-")
	c = strings.ReplaceAll(c, "_", "-")
	return VulnStatus(c)
}

// ValidCriticality reports whether s, in either casing, is a known
// criticality value.
func ValidCriticality(s string) bool {
	switch CanonicalCriticality(s) {
	case CriticalityCritical, CriticalityHigh, CriticalityMedium, CriticalityLow:
		return true
	}
	return false
}

// ValidStatus reports whether s, in either casing, is a known status value.
func ValidStatus(s string) bool {
	switch CanonicalStatus(s) {
	case StatusActive, StatusInactive, StatusInProcurement, StatusDecommissioned, StatusUnderMaintenance:
		return true
	}
	return false
}

// ValidClassification reports whether s, in either casing, is a known data
// classification value.
func ValidClassification(s string) bool {
	switch CanonicalClassification(s) {
	case ClassificationPublic, ClassificationInternal, ClassificationConfidential, ClassificationRestricted:
		return true
	}
	return false
}

// ValidVulnStatus reports whether s is a known vulnerability status.
func ValidVulnStatus(s string) bool {
	switch CanonicalVulnStatus(s) {
	case VulnOpen, VulnInProgress, VulnResolved, VulnAccepted, VulnFalsePositive:
		return true
	}
	return false
}

// OpenVuln reports whether a vulnerability in the given status still counts
// as an exposure (open or in-progress). Resolved, accepted and
// false-positive findings do not count.
func OpenVuln(s string) bool {
	st := CanonicalVulnStatus(s)
	return st == VulnOpen || st == VulnInProgress
}
