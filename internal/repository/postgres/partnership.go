package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/models"
)

// CollaborationRepository answers past-collaboration lookups from the
// collaborations table.
type CollaborationRepository struct {
	db *sql.DB
}

func NewCollaborationRepository(db *sql.DB) *CollaborationRepository {
	return &CollaborationRepository{db: db}
}

// Get returns the best recorded score for the pair in either order, 0 when
// they never worked together.
func (r *CollaborationRepository) Get(ctx context.Context, a, b string) (float64, error) {
	var score sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(score)
		FROM collaborations
		WHERE (business_a = $1 AND business_b = $2)
		   OR (business_a = $2 AND business_b = $1)`, a, b).Scan(&score)
	if err != nil {
		return 0, apperrors.NewRepositoryUnavailableError(source, err)
	}
	if !score.Valid {
		return 0, nil
	}
	return score.Float64, nil
}

// FacilitationStore appends facilitation records.
type FacilitationStore struct {
	db *sql.DB
}

func NewFacilitationStore(db *sql.DB) *FacilitationStore {
	return &FacilitationStore{db: db}
}

func (s *FacilitationStore) Save(ctx context.Context, rec models.FacilitationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO facilitations
			(id, partnership_id, opportunity_id, party_ids, status, viability, created_at, target_agreement_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.PartnershipID, rec.OpportunityID, pq.Array(rec.PartyIDs),
		rec.Status, rec.Viability, rec.CreatedAt, rec.TargetAgreementDate,
	)
	if err != nil {
		return apperrors.NewRepositoryUnavailableError(source, err)
	}
	return nil
}
