// Package main contains the Lambda warmup handler for preventing cold starts.
// Scheduled events trigger it periodically to keep instances warm.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"golang.org/x/sync/errgroup"

	"github.com/koconnect/koconnect/internal/logger"
)

const (
	// WarmupSource identifies warmup events.
	WarmupSource = "warmup"

	// WarmupDelay ensures instances overlap to create true concurrency.
	WarmupDelay = 75 * time.Millisecond

	// MaxWarmupConcurrency caps self-invocations per warmup event.
	MaxWarmupConcurrency = 20
)

// WarmupEvent is the scheduled event payload for warmup.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse is returned by warmup invocations.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// IsWarmupEvent reports whether event is a warmup event.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var probe struct {
		Source      string   `json:"source"`
		Concurrency *float64 `json:"concurrency"`
	}
	if err := json.Unmarshal(event, &probe); err != nil || probe.Source != WarmupSource {
		return nil, false
	}

	warmup := &WarmupEvent{Source: probe.Source}
	if probe.Concurrency != nil && *probe.Concurrency > 0 {
		warmup.Concurrency = int(*probe.Concurrency)
	}
	if warmup.Concurrency > MaxWarmupConcurrency {
		warmup.Concurrency = MaxWarmupConcurrency
	}
	return warmup, true
}

// invoker is the slice of the Lambda API used for self-invocation.
type invoker interface {
	Invoke(ctx context.Context, in *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

type warmer struct {
	log       logger.Logger
	newClient func(ctx context.Context) (invoker, error)
	function  string
	delay     time.Duration
}

func newWarmer(log logger.Logger) *warmer {
	return &warmer{
		log:       logger.OrNop(log).With(map[string]interface{}{"component": "warmup"}),
		newClient: defaultInvoker,
		function:  os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		delay:     WarmupDelay,
	}
}

func defaultInvoker(ctx context.Context) (invoker, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return lambdasdk.NewFromConfig(cfg), nil
}

// Handle processes a warmup event and optionally self-invokes to keep more
// instances warm.
func (w *warmer) Handle(ctx context.Context, warmup *WarmupEvent) (interface{}, error) {
	instancesWarmed := 1 // this instance

	if warmup.Concurrency > 0 {
		if err := w.selfInvoke(ctx, warmup.Concurrency); err != nil {
			w.log.Warn("warmup self-invoke failed", map[string]interface{}{"error": err.Error()})
		} else {
			instancesWarmed += warmup.Concurrency
		}
	}

	// Brief delay to ensure instances overlap.
	time.Sleep(w.delay)

	return map[string]interface{}{
		"statusCode": 200,
		"body": WarmupResponse{
			Status:          "warm",
			InstancesWarmed: instancesWarmed,
		},
	}, nil
}

// selfInvoke asynchronously invokes this function count times.
func (w *warmer) selfInvoke(ctx context.Context, count int) error {
	client, err := w.newClient(ctx)
	if err != nil {
		return err
	}

	// Children get concurrency 0 so they never fan out again.
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			_, err := client.Invoke(gctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.function),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			return err
		})
	}
	return g.Wait()
}
