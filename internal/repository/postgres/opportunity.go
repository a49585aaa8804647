package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/models"
)

const opportunityColumns = `id, title, industry, province, city, national, estimated_value,
	budget_min, budget_max, required_certifications, min_years_experience, required_skills,
	requires_designated_supplier, requires_bonding, requires_insurance, requires_sustainability,
	requires_community_benefit, local_preference, timeline_days, closing_date, complexity`

type OpportunityRepository struct {
	db *sql.DB
}

func NewOpportunityRepository(db *sql.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id string) (*models.Opportunity, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+opportunityColumns+" FROM opportunities WHERE id = $1", id)
	o, err := scanOpportunity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewOpportunityNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewRepositoryUnavailableError(source, err)
	}
	return o, nil
}

// ListOpen returns opportunities closing after asOf, or with no closing date,
// ordered by closing date.
func (r *OpportunityRepository) ListOpen(ctx context.Context, asOf time.Time) ([]models.Opportunity, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+opportunityColumns+
		" FROM opportunities WHERE closing_date IS NULL OR closing_date > $1 ORDER BY closing_date NULLS LAST, id", asOf)
	if err != nil {
		return nil, apperrors.NewRepositoryUnavailableError(source, err)
	}
	defer rows.Close()

	var out []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, apperrors.NewRepositoryUnavailableError(source, err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRepositoryUnavailableError(source, err)
	}
	return out, nil
}

func scanOpportunity(s scanner) (*models.Opportunity, error) {
	var (
		o          models.Opportunity
		title      sql.NullString
		city       sql.NullString
		closing    sql.NullTime
		complexity string
	)
	err := s.Scan(
		&o.ID, &title, &o.Industry, &o.Geography.Province, &city, &o.Geography.National, &o.EstimatedValue,
		&o.Budget.Min, &o.Budget.Max, pq.Array(&o.RequiredCertifications), &o.MinYearsExperience, pq.Array(&o.RequiredSkills),
		&o.RequiresDesignatedSupplier, &o.RequiresBonding, &o.RequiresInsurance, &o.RequiresSustainability,
		&o.RequiresCommunityBenefit, &o.LocalPreference, &o.TimelineDays, &closing, &complexity,
	)
	if err != nil {
		return nil, err
	}
	o.Title = title.String
	o.Geography.City = city.String
	if closing.Valid {
		o.ClosingDate = closing.Time
	}
	o.Complexity = models.Complexity(complexity)
	return &o, nil
}
