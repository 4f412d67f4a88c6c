package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/rotisserie/eris"
	"github.com/sony/gobreaker"
)

const EventTypeRunFinished = "payroll.run.finished"

// SQSClient is the subset of the SQS API used for publishing.
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends run lifecycle events to a queue through a circuit breaker
// so a broker outage does not slow down every payroll run.
type SQSPublisher struct {
	client   SQSClient
	queueURL string
	cb       *gobreaker.CircuitBreaker
}

func NewSQSPublisher(client SQSClient, queueURL string) *SQSPublisher {
	settings := gobreaker.Settings{
		Name:        "payroll-events",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *SQSPublisher) PublishRunFinished(ctx context.Context, event payroll.RunFinishedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return eris.Wrap(err, "marshal run finished event")
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"EventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(EventTypeRunFinished),
			},
			"BusinessID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.BusinessID),
			},
		},
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return p.client.SendMessage(ctx, input)
	})
	if err != nil {
		return eris.Wrapf(err, "send %s to queue", EventTypeRunFinished)
	}
	return nil
}

// NewSQSClient builds an SQS client. A non-empty endpoint routes calls to a
// local emulator with static test credentials.
func NewSQSClient(ctx context.Context, region, endpoint string) (*sqs.Client, error) {
	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(region)}
	if endpoint != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")))
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "load aws config")
	}

	return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NoopPublisher drops events. Used when no queue is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishRunFinished(context.Context, payroll.RunFinishedEvent) error {
	return nil
}
