// Package notify delivers match and partnership summaries to candidates.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/metrics"
	"rfq-workers/internal/models"
)

const (
	ChannelSNS = "sns"
	ChannelSES = "ses"
)

// Notifier delivers one summary. Delivery guarantees belong to the
// implementation; callers treat it as fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, candidateID string, summary models.MatchSummary) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, string, models.MatchSummary) error { return nil }

// SNSPublisher is satisfied by aws.SNSClient.
type SNSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// SNSNotifier publishes the JSON summary to a topic.
type SNSNotifier struct {
	client   SNSPublisher
	topicARN string
	logger   logger.Logger
}

func NewSNSNotifier(client SNSPublisher, topicARN string, log logger.Logger) *SNSNotifier {
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"channel": ChannelSNS}),
	}
}

func (n *SNSNotifier) Notify(ctx context.Context, candidateID string, summary models.MatchSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return apperrors.NewNotificationSendFailedError(ChannelSNS, err)
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: awsv2.String(n.topicARN),
		Message:  awsv2.String(string(body)),
		Subject:  awsv2.String(Subject(summary)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"candidateId": {
				DataType:    awsv2.String("String"),
				StringValue: awsv2.String(candidateID),
			},
			"kind": {
				DataType:    awsv2.String("String"),
				StringValue: awsv2.String(summary.Kind),
			},
		},
	})
	if err != nil {
		metrics.NotificationsFailed.WithLabelValues(ChannelSNS).Inc()
		return apperrors.NewNotificationSendFailedError(ChannelSNS, err)
	}

	n.logger.Debug("summary published", map[string]interface{}{
		"candidateId":   candidateID,
		"opportunityId": summary.OpportunityID,
		"messageId":     awsv2.ToString(out.MessageId),
	})
	return nil
}

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SESNotifier emails the summary to the candidate's contact address.
type SESNotifier struct {
	client EmailSender
	from   string
	logger logger.Logger
}

func NewSESNotifier(client EmailSender, from string, log logger.Logger) *SESNotifier {
	return &SESNotifier{
		client: client,
		from:   from,
		logger: log.WithFields(map[string]interface{}{"channel": ChannelSES}),
	}
}

func (n *SESNotifier) Notify(ctx context.Context, candidateID string, summary models.MatchSummary) error {
	if summary.ContactEmail == "" {
		n.logger.Debug("no contact email, skipping", map[string]interface{}{"candidateId": candidateID})
		return nil
	}

	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      awsv2.String(n.from),
		Destination: &sestypes.Destination{ToAddresses: []string{summary.ContactEmail}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awsv2.String(Subject(summary))},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awsv2.String(EmailBody(summary))},
			},
		},
	})
	if err != nil {
		metrics.NotificationsFailed.WithLabelValues(ChannelSES).Inc()
		return apperrors.NewNotificationSendFailedError(ChannelSES, err)
	}
	return nil
}

// Multi fans out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, candidateID string, summary models.MatchSummary) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, candidateID, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subject is the one-line headline shared by every channel.
func Subject(s models.MatchSummary) string {
	name := s.OpportunityTitle
	if name == "" {
		name = s.OpportunityID
	}
	if s.Kind == models.SummaryKindPartnership {
		return fmt.Sprintf("Partnership opportunity: %s", name)
	}
	return fmt.Sprintf("New RFQ match: %s (score %.0f)", name, s.OverallScore)
}

// EmailBody renders the plain-text email.
func EmailBody(s models.MatchSummary) string {
	var b strings.Builder
	if s.CandidateName != "" {
		fmt.Fprintf(&b, "Hello %s,\n\n", s.CandidateName)
	}
	if s.Message != "" {
		b.WriteString(s.Message)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Opportunity: %s\n", s.OpportunityID)
	fmt.Fprintf(&b, "Overall score: %.1f\n", s.OverallScore)
	fmt.Fprintf(&b, "Win probability: %.0f%%\n", s.WinProbability*100)
	if len(s.Strengths) > 0 {
		fmt.Fprintf(&b, "Strengths: %s\n", joinDimensions(s.Strengths))
	}
	if len(s.Gaps) > 0 {
		fmt.Fprintf(&b, "Gaps: %s\n", joinDimensions(s.Gaps))
	}
	return b.String()
}

func joinDimensions(ds []models.Dimension) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}

// SummaryFromMatch builds the notifier payload for a match.
func SummaryFromMatch(opp *models.Opportunity, m models.Match) models.MatchSummary {
	return models.MatchSummary{
		CandidateID:      m.Candidate.ID,
		CandidateName:    m.Candidate.Name,
		ContactEmail:     m.Candidate.ContactEmail,
		OpportunityID:    opp.ID,
		OpportunityTitle: opp.Title,
		Kind:             models.SummaryKindMatch,
		OverallScore:     m.Score.Overall,
		WinProbability:   m.Score.WinProbability,
		Strengths:        m.Strengths,
		Gaps:             m.Gaps,
	}
}
