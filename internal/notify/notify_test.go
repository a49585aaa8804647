package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/models"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awsv2.String("msg-1")}, nil
}

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: awsv2.String("mail-1")}, nil
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(context.Context, string, models.MatchSummary) error {
	r.calls++
	return r.err
}

func summary() models.MatchSummary {
	return models.MatchSummary{
		CandidateID:      "c-1",
		CandidateName:    "Northwind Builders",
		ContactEmail:     "bids@northwind.example",
		OpportunityID:    "opp-1",
		OpportunityTitle: "Transit shelter retrofit",
		Kind:             models.SummaryKindMatch,
		OverallScore:     84.25,
		WinProbability:   0.81,
		Strengths:        []models.Dimension{models.DimensionTechnical, models.DimensionLocation},
		Gaps:             []models.Dimension{models.DimensionCapacity},
	}
}

func TestSNSNotifier_Publishes(t *testing.T) {
	client := &fakeSNS{}
	n := NewSNSNotifier(client, "arn:aws:sns:ca-central-1:123456789012:rfq-matches", logger.NewTestLogger(t))

	require.NoError(t, n.Notify(context.Background(), "c-1", summary()))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:ca-central-1:123456789012:rfq-matches", awsv2.ToString(in.TopicArn))
	assert.Equal(t, "c-1", awsv2.ToString(in.MessageAttributes["candidateId"].StringValue))
	assert.Equal(t, "match", awsv2.ToString(in.MessageAttributes["kind"].StringValue))

	var decoded models.MatchSummary
	require.NoError(t, json.Unmarshal([]byte(awsv2.ToString(in.Message)), &decoded))
	assert.Equal(t, "opp-1", decoded.OpportunityID)
}

func TestSNSNotifier_Failure(t *testing.T) {
	n := NewSNSNotifier(&fakeSNS{err: errors.New("throttled")}, "arn", logger.NewTestLogger(t))
	err := n.Notify(context.Background(), "c-1", summary())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationSendFailed))
}

func TestSESNotifier_SendsEmail(t *testing.T) {
	client := &fakeSES{}
	n := NewSESNotifier(client, "matches@example.com", logger.NewTestLogger(t))

	require.NoError(t, n.Notify(context.Background(), "c-1", summary()))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "matches@example.com", awsv2.ToString(in.Source))
	assert.Equal(t, []string{"bids@northwind.example"}, in.Destination.ToAddresses)
	assert.Equal(t, "New RFQ match: Transit shelter retrofit (score 84)", awsv2.ToString(in.Message.Subject.Data))
	assert.Contains(t, awsv2.ToString(in.Message.Body.Text.Data), "Strengths: technical, location")
}

func TestSESNotifier_SkipsWithoutAddress(t *testing.T) {
	client := &fakeSES{}
	n := NewSESNotifier(client, "matches@example.com", logger.NewTestLogger(t))

	s := summary()
	s.ContactEmail = ""
	require.NoError(t, n.Notify(context.Background(), "c-1", s))
	assert.Empty(t, client.inputs)
}

func TestMulti_JoinsErrors(t *testing.T) {
	ok := &recordingNotifier{}
	bad := &recordingNotifier{err: errors.New("down")}

	err := Multi{ok, bad, ok}.Notify(context.Background(), "c-1", summary())
	require.Error(t, err)
	assert.Equal(t, 2, ok.calls)
	assert.Equal(t, 1, bad.calls)

	assert.NoError(t, Multi{}.Notify(context.Background(), "c-1", summary()))
	assert.NoError(t, Nop{}.Notify(context.Background(), "c-1", summary()))
}

func TestSubject_Partnership(t *testing.T) {
	s := summary()
	s.Kind = models.SummaryKindPartnership
	s.OpportunityTitle = ""
	assert.Equal(t, "Partnership opportunity: opp-1", Subject(s))
}
