// internal/models/opportunity.go
package models

import (
	"fmt"
	"strings"
	"time"

	apperrors "rfq-workers/internal/common/errors"
)

type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// NationalProvince is accepted in Geography.Province as shorthand for National.
const NationalProvince = "national"

type Geography struct {
	Province string `json:"province"`
	City     string `json:"city,omitempty"`
	National bool   `json:"national,omitempty"`
}

// IsNational reports whether the geography spans the whole country.
func (g Geography) IsNational() bool {
	return g.National || strings.EqualFold(g.Province, NationalProvince)
}

type BudgetRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Opportunity is a published RFQ. It is never mutated once matching begins;
// a revision is a new Opportunity.
type Opportunity struct {
	ID                         string      `json:"id"`
	Title                      string      `json:"title,omitempty"`
	Industry                   string      `json:"industry"`
	Geography                  Geography   `json:"geography"`
	EstimatedValue             float64     `json:"estimatedValue"`
	Budget                     BudgetRange `json:"budget"`
	RequiredCertifications     []string    `json:"requiredCertifications,omitempty"`
	MinYearsExperience         int         `json:"minYearsExperience"`
	RequiredSkills             []string    `json:"requiredSkills,omitempty"`
	RequiresDesignatedSupplier bool        `json:"requiresDesignatedSupplier"`
	RequiresBonding            bool        `json:"requiresBonding"`
	RequiresInsurance          bool        `json:"requiresInsurance"`
	RequiresSustainability     bool        `json:"requiresSustainability"`
	RequiresCommunityBenefit   bool        `json:"requiresCommunityBenefit"`
	LocalPreference            bool        `json:"localPreference"`
	TimelineDays               int         `json:"timelineDays,omitempty"`
	ClosingDate                time.Time   `json:"closingDate"`
	Complexity                 Complexity  `json:"complexity"`
}

// Validate rejects malformed opportunities before any scoring begins.
func (o *Opportunity) Validate() error {
	var problems []string

	if strings.TrimSpace(o.ID) == "" {
		problems = append(problems, "id is required")
	}
	if o.EstimatedValue <= 0 {
		problems = append(problems, fmt.Sprintf("estimatedValue must be positive, got %.2f", o.EstimatedValue))
	}
	if o.Budget.Min < 0 || o.Budget.Max < 0 {
		problems = append(problems, "budget bounds must not be negative")
	}
	if o.Budget.Max > 0 && o.Budget.Min > o.Budget.Max {
		problems = append(problems, fmt.Sprintf("budget min %.2f exceeds max %.2f", o.Budget.Min, o.Budget.Max))
	}
	if o.MinYearsExperience < 0 {
		problems = append(problems, "minYearsExperience must not be negative")
	}
	if o.TimelineDays < 0 {
		problems = append(problems, "timelineDays must not be negative")
	}
	switch o.Complexity {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
	default:
		problems = append(problems, fmt.Sprintf("unknown complexity %q", o.Complexity))
	}

	if len(problems) > 0 {
		return apperrors.NewInvalidOpportunityError(o.ID, strings.Join(problems, "; "))
	}
	return nil
}
