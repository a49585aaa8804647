package partnership

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/models"
	"rfq-workers/internal/notify"
)

// AgreementWindow is the target time from introduction to a signed teaming
// agreement.
const AgreementWindow = 7 * 24 * time.Hour

// NextSteps is the checklist attached to every introduction.
var NextSteps = []string{
	"Schedule an introductory call between both parties",
	"Exchange capability statements and relevant past projects",
	"Agree on scope split and the recommended structure",
	"Draft and sign a teaming agreement",
	"Confirm bid roles and the submission timeline",
}

// FacilitationStore persists facilitation records.
type FacilitationStore interface {
	Save(ctx context.Context, rec models.FacilitationRecord) error
}

type Facilitator struct {
	store    FacilitationStore
	notifier notify.Notifier
	now      func() time.Time
	newID    func() string
	logger   logger.Logger
}

type FacilitatorOption func(*Facilitator)

func WithClock(now func() time.Time) FacilitatorOption {
	return func(f *Facilitator) { f.now = now }
}

func WithIDGenerator(gen func() string) FacilitatorOption {
	return func(f *Facilitator) { f.newID = gen }
}

func NewFacilitator(store FacilitationStore, notifier notify.Notifier, log logger.Logger, opts ...FacilitatorOption) *Facilitator {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	f := &Facilitator{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   log.WithFields(map[string]interface{}{"component": "partnership-facilitator"}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Facilitate records the offer and introduces the parties. Notification
// failures are logged; only a failed save is returned.
func (f *Facilitator) Facilitate(ctx context.Context, opp *models.Opportunity, p *models.Partnership) (*models.Introduction, *models.FacilitationRecord, error) {
	intro := BuildIntroduction(opp, p)

	created := f.now().UTC()
	rec := models.FacilitationRecord{
		ID:                  f.newID(),
		PartnershipID:       p.ID,
		OpportunityID:       p.OpportunityID,
		PartyIDs:            partyIDs(p),
		Status:              models.FacilitationStatusIntroduced,
		Viability:           p.Viability,
		CreatedAt:           created,
		TargetAgreementDate: created.Add(AgreementWindow),
	}
	if err := f.store.Save(ctx, rec); err != nil {
		return nil, nil, apperrors.NewFacilitationFailedError(p.ID, err)
	}

	for _, party := range parties(p) {
		summary := models.MatchSummary{
			CandidateID:      party.ID,
			CandidateName:    party.Name,
			ContactEmail:     party.ContactEmail,
			OpportunityID:    opp.ID,
			OpportunityTitle: opp.Title,
			Kind:             models.SummaryKindPartnership,
			OverallScore:     p.CombinedScore,
			WinProbability:   p.Combined.WinProbability,
			Message:          intro.Message,
		}
		if err := f.notifier.Notify(ctx, party.ID, summary); err != nil {
			f.logger.Warn("partnership introduction not delivered", map[string]interface{}{
				"partnershipId": p.ID,
				"candidateId":   party.ID,
				"error":         err,
			})
		}
	}

	f.logger.Info("partnership introduced", map[string]interface{}{
		"partnershipId": p.ID,
		"recordId":      rec.ID,
		"structure":     p.Structure,
	})
	return &intro, &rec, nil
}

// BuildIntroduction renders the introduction payload. It is pure.
func BuildIntroduction(opp *models.Opportunity, p *models.Partnership) models.Introduction {
	names := make([]string, 0, 1+len(p.Partners))
	for _, c := range parties(p) {
		names = append(names, displayName(c))
	}

	title := opp.Title
	if title == "" {
		title = opp.ID
	}

	covered := make([]string, len(p.CoveredGaps))
	for i, g := range p.CoveredGaps {
		covered[i] = string(g)
	}

	value := fmt.Sprintf("Together, %s cover %s for %s, lifting the combined score from %.1f to %.1f.",
		strings.Join(names, " and "),
		strings.Join(covered, ", "),
		title,
		p.Primary.Score.Overall,
		p.CombinedScore,
	)

	var structure string
	if p.Structure == models.StructurePrimeSub {
		prime := p.PrimeID
		for _, c := range parties(p) {
			if c.ID == p.PrimeID {
				prime = displayName(c)
			}
		}
		structure = fmt.Sprintf("We suggest a prime/subcontractor arrangement with %s as prime.", prime)
	} else {
		structure = "We suggest an equal joint venture."
	}

	msg := fmt.Sprintf("We identified a partnership opportunity for %s. %s %s Please reply within %d days to start the teaming process.",
		title, value, structure, int(AgreementWindow.Hours()/24))

	return models.Introduction{
		PartnershipID:    p.ID,
		Parties:          names,
		ValueProposition: value,
		Message:          msg,
		NextSteps:        append([]string(nil), NextSteps...),
	}
}

func parties(p *models.Partnership) []models.Candidate {
	out := []models.Candidate{p.Primary.Candidate}
	for _, partner := range p.Partners {
		out = append(out, partner.Candidate)
	}
	return out
}

func partyIDs(p *models.Partnership) []string {
	var ids []string
	for _, c := range parties(p) {
		ids = append(ids, c.ID)
	}
	return ids
}

func displayName(c models.Candidate) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}
