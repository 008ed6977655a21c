package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	appConfig "github.com/kendall-kelly/studentbridge-api/config"
	"github.com/kendall-kelly/studentbridge-api/logger"
)

// Push actions understood by the device gateway subscribed to the topic
const (
	PushActionShow    = "show"
	PushActionDismiss = "dismiss"
)

// PushNotification is a background alert for one user's devices
type PushNotification struct {
	UserID   uint                   `json:"user_id"`
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	ThreadID string                 `json:"thread_id,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// Notifier schedules and retracts push notifications. Notifications sharing a
// thread id are dismissed together.
//
//go:generate mockgen -source=notifier.go -destination=notifier_mock.go -package=services
type Notifier interface {
	Schedule(ctx context.Context, push PushNotification) error
	DismissThread(ctx context.Context, userID uint, threadID string) error
}

// SNSPublisher is the subset of the SNS client the notifier uses
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes push requests to an SNS topic. Message attributes
// carry action, thread_id and user_id so subscriptions can filter.
type SNSNotifier struct {
	client   SNSPublisher
	topicARN string
}

// NewSNSNotifier creates a notifier that publishes through client
func NewSNSNotifier(client SNSPublisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

// InitSNSNotifier builds an SNS client from the application config
func InitSNSNotifier(ctx context.Context, cfg *appConfig.Config) (*SNSNotifier, error) {
	awsConfig, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewSNSNotifier(sns.NewFromConfig(awsConfig), cfg.AWSSNSTopicARN), nil
}

// Schedule publishes a show request
func (n *SNSNotifier) Schedule(ctx context.Context, push PushNotification) error {
	return n.publish(ctx, PushActionShow, push)
}

// DismissThread publishes a dismiss request for every notification in the thread
func (n *SNSNotifier) DismissThread(ctx context.Context, userID uint, threadID string) error {
	return n.publish(ctx, PushActionDismiss, PushNotification{UserID: userID, ThreadID: threadID})
}

func (n *SNSNotifier) publish(ctx context.Context, action string, push PushNotification) error {
	body, err := json.Marshal(push)
	if err != nil {
		return fmt.Errorf("encode push: %w", err)
	}

	attrs := map[string]types.MessageAttributeValue{
		"action":  stringAttribute(action),
		"user_id": stringAttribute(strconv.FormatUint(uint64(push.UserID), 10)),
	}
	if push.ThreadID != "" {
		attrs["thread_id"] = stringAttribute(push.ThreadID)
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(n.topicARN),
		Message:           aws.String(string(body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sns publish %s: %w", action, err)
	}
	return nil
}

func stringAttribute(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
}

// LogNotifier writes push requests to the log. Used when no topic is configured.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.WithFields(map[string]interface{}{"component": "notifier"})}
}

// Schedule logs the push
func (n *LogNotifier) Schedule(ctx context.Context, push PushNotification) error {
	n.log.Info("push scheduled", map[string]interface{}{
		"user_id":   push.UserID,
		"title":     push.Title,
		"thread_id": push.ThreadID,
	})
	return nil
}

// DismissThread logs the dismissal
func (n *LogNotifier) DismissThread(ctx context.Context, userID uint, threadID string) error {
	n.log.Info("push thread dismissed", map[string]interface{}{
		"user_id":   userID,
		"thread_id": threadID,
	})
	return nil
}
