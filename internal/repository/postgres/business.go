// Package postgres implements the repositories on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/models"
)

const source = "postgres"

const businessColumns = `id, name, contact_email, status, verified, industry, secondary_industries,
	province, city, designated_supplier, designated_certified, employee_count, years_in_business,
	certifications, capabilities, max_project_size, average_project_size, service_areas,
	operates_nationally, capacity_utilization, available_immediately, performance_rating,
	has_bonding, has_insurance, community_involvement, local_employment_ratio,
	sustainability_certified, past_projects`

// BusinessRepository reads candidate profiles from the businesses table.
type BusinessRepository struct {
	db *sql.DB
}

func NewBusinessRepository(db *sql.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

// FindEligible returns candidates matching f in a stable id order.
func (r *BusinessRepository) FindEligible(ctx context.Context, f models.EligibilityFilters) ([]models.Candidate, error) {
	query, args := eligibleQuery(f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewRepositoryUnavailableError(source, err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, apperrors.NewRepositoryUnavailableError(source, err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRepositoryUnavailableError(source, err)
	}
	return out, nil
}

func eligibleQuery(f models.EligibilityFilters) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.Status != "" {
		add("LOWER(status) = LOWER($%d)", f.Status)
	}
	if f.Verified {
		where = append(where, "verified = TRUE")
	}
	if f.Industry != "" {
		add("LOWER(industry) = LOWER($%d)", f.Industry)
	}
	if f.Province != "" {
		add("LOWER(province) = LOWER($%d)", f.Province)
	}
	if f.DesignatedSupplierRequired {
		where = append(where, "designated_supplier = TRUE")
	}

	query := "SELECT " + businessColumns + " FROM businesses"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY id", args
}

func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+businessColumns+" FROM businesses WHERE id = $1", id)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewCandidateNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewRepositoryUnavailableError(source, err)
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCandidate(s scanner) (*models.Candidate, error) {
	var (
		c           models.Candidate
		contact     sql.NullString
		certs       []byte
		pastJSON    []byte
		utilization sql.NullFloat64
		rating      sql.NullFloat64
	)
	err := s.Scan(
		&c.ID, &c.Name, &contact, &c.Status, &c.Verified, &c.Industry, pq.Array(&c.SecondaryIndustries),
		&c.Geography.Province, &c.Geography.City, &c.DesignatedSupplier, &c.DesignatedCertified,
		&c.EmployeeCount, &c.YearsInBusiness,
		&certs, pq.Array(&c.Capabilities), &c.MaxProjectSize, &c.AverageProjectSize, pq.Array(&c.ServiceAreas),
		&c.OperatesNationally, &utilization, &c.AvailableImmediately, &rating,
		&c.HasBonding, &c.HasInsurance, &c.CommunityInvolvement, &c.LocalEmploymentRatio,
		&c.SustainabilityCertified, &pastJSON,
	)
	if err != nil {
		return nil, err
	}

	c.ContactEmail = contact.String
	if utilization.Valid {
		c.CapacityUtilization = &utilization.Float64
	}
	if rating.Valid {
		c.PerformanceRating = &rating.Float64
	}
	if err := unmarshalJSONB(certs, &c.Certifications); err != nil {
		return nil, fmt.Errorf("business %s certifications: %w", c.ID, err)
	}
	if err := unmarshalJSONB(pastJSON, &c.PastProjects); err != nil {
		return nil, fmt.Errorf("business %s past projects: %w", c.ID, err)
	}
	return &c, nil
}

// unmarshalJSONB treats NULL and empty columns as "no value".
func unmarshalJSONB(raw []byte, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
