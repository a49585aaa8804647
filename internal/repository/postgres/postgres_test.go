package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func columns(list string) []string {
	var out []string
	for _, c := range strings.Split(list, ",") {
		out = append(out, strings.TrimSpace(c))
	}
	return out
}

func businessRows() *sqlmock.Rows {
	return sqlmock.NewRows(columns(businessColumns)).
		AddRow(
			"b-1", "Northwind Mechanical", "bids@northwind.example", "active", true, "Construction", "{Engineering}",
			"ON", "Toronto", true, false, 45, 12,
			[]byte(`[{"type":"COR","validUntil":"2027-01-01T00:00:00Z"},{"type":"ISO 9001"}]`), "{hvac,controls}", 2000000.0, 400000.0, "{Mississauga,Brampton}",
			false, 65.0, true, 4.5,
			true, true, false, 0.8,
			false, []byte(`[{"industry":"Construction","value":350000}]`),
		).
		AddRow(
			"b-2", "Lakeshore Electric", nil, "active", true, "Construction", nil,
			"ON", "Hamilton", false, false, 12, 3,
			nil, "{}", 300000.0, 90000.0, nil,
			false, nil, false, nil,
			false, false, true, 0.0,
			false, nil,
		)
}

// ==========================
// BusinessRepository
// ==========================

func TestBusinessRepository_FindEligible(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBusinessRepository(db)

	mock.ExpectQuery(`(?s)SELECT .+ FROM businesses WHERE LOWER\(status\) = LOWER\(\$1\) AND verified = TRUE AND designated_supplier = TRUE ORDER BY id`).
		WithArgs("active").
		WillReturnRows(businessRows())

	got, err := repo.FindEligible(context.Background(), models.EligibilityFilters{
		Status:                     "active",
		Verified:                   true,
		DesignatedSupplierRequired: true,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "b-1", first.ID)
	assert.Equal(t, []string{"Engineering"}, first.SecondaryIndustries)
	assert.Equal(t, []string{"hvac", "controls"}, first.Capabilities)
	assert.Equal(t, []string{"Mississauga", "Brampton"}, first.ServiceAreas)
	require.Len(t, first.Certifications, 2)
	assert.Equal(t, "COR", first.Certifications[0].Type)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), first.Certifications[0].ValidUntil)
	assert.True(t, first.Certifications[1].ValidUntil.IsZero())
	require.NotNil(t, first.CapacityUtilization)
	assert.Equal(t, 65.0, *first.CapacityUtilization)
	require.NotNil(t, first.PerformanceRating)
	assert.Equal(t, 4.5, *first.PerformanceRating)
	require.Len(t, first.PastProjects, 1)

	second := got[1]
	assert.Empty(t, second.ContactEmail)
	assert.Nil(t, second.CapacityUtilization)
	assert.Nil(t, second.PerformanceRating)
	assert.Empty(t, second.Certifications)
	assert.True(t, second.CommunityInvolvement)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEligibleQuery(t *testing.T) {
	q, args := eligibleQuery(models.EligibilityFilters{Industry: "Construction", Province: "ON"})
	assert.Contains(t, q, "WHERE LOWER(industry) = LOWER($1) AND LOWER(province) = LOWER($2)")
	assert.Equal(t, []interface{}{"Construction", "ON"}, args)

	q, args = eligibleQuery(models.EligibilityFilters{})
	assert.NotContains(t, q, "WHERE")
	assert.Empty(t, args)
}

func TestBusinessRepository_FindEligible_QueryError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`(?s)SELECT .+ FROM businesses`).WillReturnError(errors.New("connection refused"))

	_, err := NewBusinessRepository(db).FindEligible(context.Background(), models.EligibilityFilters{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRepositoryUnavailable))
}

func TestBusinessRepository_FindEligible_BadJSON(t *testing.T) {
	db, mock := newMock(t)
	rows := sqlmock.NewRows(columns(businessColumns)).AddRow(
		"b-3", "Broken", nil, "active", true, "Construction", nil,
		"ON", "Toronto", false, false, 5, 1,
		[]byte(`{not json`), nil, 0.0, 0.0, nil,
		false, nil, false, nil,
		false, false, false, 0.0,
		false, nil,
	)
	mock.ExpectQuery(`(?s)SELECT .+ FROM businesses`).WillReturnRows(rows)

	_, err := NewBusinessRepository(db).FindEligible(context.Background(), models.EligibilityFilters{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRepositoryUnavailable))
}

func TestBusinessRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBusinessRepository(db)

	mock.ExpectQuery(`(?s)SELECT .+ FROM businesses WHERE id = \$1`).
		WithArgs("b-1").
		WillReturnRows(businessRows())
	c, err := repo.GetByID(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "Northwind Mechanical", c.Name)

	mock.ExpectQuery(`(?s)SELECT .+ FROM businesses WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), "ghost")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCandidateNotFound))

	mock.ExpectQuery(`(?s)SELECT .+ FROM businesses WHERE id = \$1`).
		WithArgs("b-1").
		WillReturnError(errors.New("i/o timeout"))
	_, err = repo.GetByID(context.Background(), "b-1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRepositoryUnavailable))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// OpportunityRepository
// ==========================

var closing = time.Date(2026, 6, 30, 17, 0, 0, 0, time.UTC)

func opportunityRows() *sqlmock.Rows {
	return sqlmock.NewRows(columns(opportunityColumns)).
		AddRow(
			"opp-1", "Transit shelter retrofit", "Construction", "ON", "Toronto", false, 250000.0,
			200000.0, 300000.0, "{COR}", 5, "{welding,\"glass installation\"}",
			true, true, false, false,
			true, true, 60, closing, "medium",
		).
		AddRow(
			"opp-2", nil, "IT Services", "national", nil, true, 80000.0,
			0.0, 0.0, nil, 0, nil,
			false, false, false, false,
			false, false, 0, nil, "low",
		)
}

func TestOpportunityRepository_ListOpen(t *testing.T) {
	db, mock := newMock(t)
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT .+ FROM opportunities WHERE closing_date IS NULL OR closing_date > \$1`).
		WithArgs(asOf).
		WillReturnRows(opportunityRows())

	got, err := NewOpportunityRepository(db).ListOpen(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []string{"COR"}, got[0].RequiredCertifications)
	assert.Equal(t, []string{"welding", "glass installation"}, got[0].RequiredSkills)
	assert.Equal(t, closing, got[0].ClosingDate)
	assert.Equal(t, models.ComplexityMedium, got[0].Complexity)
	assert.NoError(t, got[0].Validate())

	assert.True(t, got[1].Geography.IsNational())
	assert.True(t, got[1].ClosingDate.IsZero())
	assert.Empty(t, got[1].Title)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpportunityRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOpportunityRepository(db)

	mock.ExpectQuery(`(?s)SELECT .+ FROM opportunities WHERE id = \$1`).
		WithArgs("opp-1").
		WillReturnRows(opportunityRows())
	o, err := repo.GetByID(context.Background(), "opp-1")
	require.NoError(t, err)
	assert.Equal(t, "Transit shelter retrofit", o.Title)

	mock.ExpectQuery(`(?s)SELECT .+ FROM opportunities WHERE id = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(columns(opportunityColumns)))
	_, err = repo.GetByID(context.Background(), "nope")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeOpportunityNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpportunityRepository_ListOpen_Error(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`(?s)SELECT .+ FROM opportunities`).WillReturnError(errors.New("too many connections"))

	_, err := NewOpportunityRepository(db).ListOpen(context.Background(), closing)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRepositoryUnavailable))
}

// ==========================
// Collaborations & facilitations
// ==========================

func TestCollaborationRepository_Get(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCollaborationRepository(db)

	mock.ExpectQuery(`SELECT MAX\(score\)\s+FROM collaborations`).
		WithArgs("a", "b").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(0.8))
	score, err := repo.Get(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 0.8, score)

	mock.ExpectQuery(`SELECT MAX\(score\)\s+FROM collaborations`).
		WithArgs("a", "c").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	score, err = repo.Get(context.Background(), "a", "c")
	require.NoError(t, err)
	assert.Zero(t, score)

	mock.ExpectQuery(`SELECT MAX\(score\)\s+FROM collaborations`).
		WillReturnError(errors.New("boom"))
	_, err = repo.Get(context.Background(), "a", "d")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRepositoryUnavailable))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacilitationStore_Save(t *testing.T) {
	db, mock := newMock(t)
	store := NewFacilitationStore(db)
	created := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	rec := models.FacilitationRecord{
		ID:                  "fac-1",
		PartnershipID:       "opp-1:a:b",
		OpportunityID:       "opp-1",
		PartyIDs:            []string{"a", "b"},
		Status:              models.FacilitationStatusIntroduced,
		Viability:           82.5,
		CreatedAt:           created,
		TargetAgreementDate: created.AddDate(0, 0, 7),
	}

	mock.ExpectExec(`INSERT INTO facilitations`).
		WithArgs("fac-1", "opp-1:a:b", "opp-1", sqlmock.AnyArg(), "introduced", 82.5, created, created.AddDate(0, 0, 7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Save(context.Background(), rec))

	mock.ExpectExec(`INSERT INTO facilitations`).WillReturnError(errors.New("duplicate key"))
	err := store.Save(context.Background(), rec)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRepositoryUnavailable))

	assert.NoError(t, mock.ExpectationsWereMet())
}
