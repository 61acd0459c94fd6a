package reminder

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sns"

	appLog "meditrack/internal/log"
	"meditrack/internal/model"
)

// Notifier delivers a notification outside the process.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// LogNotifier writes notifications to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n model.Notification) error {
	appLog.Info("notification", "type", n.Kind, "title", n.Title, "message", n.Message)
	return nil
}

// SNSPublisher is the subset of the SNS client used for delivery.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes notifications to an SNS topic, typically fanned
// out to SMS or e-mail subscribers.
type SNSNotifier struct {
	Client   SNSPublisher
	TopicARN string
}

func (s *SNSNotifier) Notify(ctx context.Context, n model.Notification) error {
	msg := fmt.Sprintf("%s\n%s", n.Title, n.Message)
	subject := n.Title
	input := &sns.PublishInput{
		Message:  &msg,
		Subject:  &subject,
		TopicArn: &s.TopicARN,
	}

	if _, err := s.Client.Publish(ctx, input); err != nil {
		return fmt.Errorf("error publishing to SNS topic %s: %w", s.TopicARN, err)
	}
	return nil
}

// MultiNotifier fans a notification out to several notifiers and joins
// their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n model.Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
