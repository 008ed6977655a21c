package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testTopic = "arn:aws:sns:us-east-1:123456789012:studentbridge-push"

func TestSNSNotifierSchedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockSNSPublisher(ctrl)
	notifier := NewSNSNotifier(client, testTopic)

	client.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			assert.Equal(t, testTopic, aws.ToString(in.TopicArn))
			assert.Equal(t, PushActionShow, aws.ToString(in.MessageAttributes["action"].StringValue))
			assert.Equal(t, "chat-1-2", aws.ToString(in.MessageAttributes["thread_id"].StringValue))
			assert.Equal(t, "9", aws.ToString(in.MessageAttributes["user_id"].StringValue))
			assert.Equal(t, "String", aws.ToString(in.MessageAttributes["user_id"].DataType))

			var body PushNotification
			require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &body))
			assert.Equal(t, "New message", body.Title)
			return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
		})

	err := notifier.Schedule(context.Background(), PushNotification{UserID: 9, Title: "New message", Body: "hi", ThreadID: "chat-1-2"})
	assert.NoError(t, err)
}

func TestSNSNotifierDismissThread(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockSNSPublisher(ctrl)
	notifier := NewSNSNotifier(client, testTopic)

	client.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			assert.Equal(t, PushActionDismiss, aws.ToString(in.MessageAttributes["action"].StringValue))
			assert.Equal(t, "application-4", aws.ToString(in.MessageAttributes["thread_id"].StringValue))
			return &sns.PublishOutput{}, nil
		})

	assert.NoError(t, notifier.DismissThread(context.Background(), 9, "application-4"))
}

func TestSNSNotifierOmitsEmptyThread(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockSNSPublisher(ctrl)

	client.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			_, ok := in.MessageAttributes["thread_id"]
			assert.False(t, ok)
			return &sns.PublishOutput{}, nil
		})

	assert.NoError(t, NewSNSNotifier(client, testTopic).Schedule(context.Background(), PushNotification{UserID: 1, Title: "x"}))
}

func TestSNSNotifierPublishError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockSNSPublisher(ctrl)
	client.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil, errors.New("throttled"))

	err := NewSNSNotifier(client, testTopic).Schedule(context.Background(), PushNotification{UserID: 1})
	assert.ErrorContains(t, err, "throttled")
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(logger.NewTestLogger(t))
	assert.NoError(t, n.Schedule(context.Background(), PushNotification{UserID: 1, Title: "x", ThreadID: "chat-1-2"}))
	assert.NoError(t, n.DismissThread(context.Background(), 1, "chat-1-2"))
}
