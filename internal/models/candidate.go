// internal/models/candidate.go
package models

import (
	"errors"
	"strings"
	"time"
)

const (
	CandidateStatusActive   = "active"
	CandidateStatusInactive = "inactive"
)

type Certification struct {
	Type       string    `json:"type"`
	ValidUntil time.Time `json:"validUntil,omitempty"` // zero means no expiry
}

// ValidAt reports whether the certification is still in force at t.
func (c Certification) ValidAt(t time.Time) bool {
	return c.ValidUntil.IsZero() || !c.ValidUntil.Before(t)
}

type PastProject struct {
	Industry    string    `json:"industry"`
	Value       float64   `json:"value"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}

// Candidate is a business profile snapshot. The engine treats it as read-only
// for the duration of a matching pass.
type Candidate struct {
	ID                      string          `json:"id"`
	Name                    string          `json:"name"`
	ContactEmail            string          `json:"contactEmail,omitempty"`
	Status                  string          `json:"status"`
	Verified                bool            `json:"verified"`
	Industry                string          `json:"industry"`
	SecondaryIndustries     []string        `json:"secondaryIndustries,omitempty"`
	Geography               Geography       `json:"geography"`
	DesignatedSupplier      bool            `json:"designatedSupplier"`
	DesignatedCertified     bool            `json:"designatedCertified"`
	EmployeeCount           int             `json:"employeeCount"`
	YearsInBusiness         int             `json:"yearsInBusiness"`
	Certifications          []Certification `json:"certifications,omitempty"`
	Capabilities            []string        `json:"capabilities,omitempty"`
	MaxProjectSize          float64         `json:"maxProjectSize"`
	AverageProjectSize      float64         `json:"averageProjectSize"`
	ServiceAreas            []string        `json:"serviceAreas,omitempty"`
	OperatesNationally      bool            `json:"operatesNationally"`
	CapacityUtilization     *float64        `json:"capacityUtilization,omitempty"` // percent, nil when unknown
	AvailableImmediately    bool            `json:"availableImmediately"`
	PerformanceRating       *float64        `json:"performanceRating,omitempty"` // 0-5, nil when unrated
	HasBonding              bool            `json:"hasBonding"`
	HasInsurance            bool            `json:"hasInsurance"`
	CommunityInvolvement    bool            `json:"communityInvolvement"`
	LocalEmploymentRatio    float64         `json:"localEmploymentRatio,omitempty"`
	SustainabilityCertified bool            `json:"sustainabilityCertified"`
	PastProjects            []PastProject   `json:"pastProjects,omitempty"`
}

var (
	errCandidateID        = errors.New("candidate id is required")
	errCandidateEmployees = errors.New("employee count must not be negative")
	errCandidateYears     = errors.New("years in business must not be negative")
)

// Validate reports profile data too malformed to score. Missing optional data
// is not an error; scoring falls back to its defaults.
func (c *Candidate) Validate() error {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return errCandidateID
	case c.EmployeeCount < 0:
		return errCandidateEmployees
	case c.YearsInBusiness < 0:
		return errCandidateYears
	}
	return nil
}

// IsActive reports whether the candidate may be matched at all.
func (c *Candidate) IsActive() bool {
	return strings.EqualFold(c.Status, CandidateStatusActive) && c.Verified
}

// EligibilityFilters is what the engine asks a BusinessRepository for.
type EligibilityFilters struct {
	Status                     string `json:"status"`
	Verified                   bool   `json:"verified"`
	Industry                   string `json:"industry,omitempty"`
	Province                   string `json:"province,omitempty"`
	DesignatedSupplierRequired bool   `json:"designatedSupplierRequired"`
}
