package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koconnect/koconnect/internal/logger"
)

type fakeInvoker struct {
	mu     sync.Mutex
	inputs []*lambdasdk.InvokeInput
	err    error
}

func (f *fakeInvoker) Invoke(_ context.Context, in *lambdasdk.InvokeInput, _ ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	return &lambdasdk.InvokeOutput{}, f.err
}

func testWarmer(t *testing.T, inv *fakeInvoker) *warmer {
	return &warmer{
		log:       logger.NewTestLogger(t),
		newClient: func(context.Context) (invoker, error) { return inv, nil },
		function:  "koconnect",
	}
}

func TestIsWarmupEvent(t *testing.T) {
	tests := []struct {
		name        string
		event       string
		isWarmup    bool
		concurrency int
	}{
		{"plain warmup", `{"source":"warmup"}`, true, 0},
		{"with concurrency", `{"source":"warmup","concurrency":3}`, true, 3},
		{"capped concurrency", `{"source":"warmup","concurrency":500}`, true, MaxWarmupConcurrency},
		{"negative concurrency", `{"source":"warmup","concurrency":-2}`, true, 0},
		{"other source", `{"source":"aws.events"}`, false, 0},
		{"request", `{"action":"languages"}`, false, 0},
		{"not an object", `[]`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := IsWarmupEvent(json.RawMessage(tt.event))
			assert.Equal(t, tt.isWarmup, ok)
			if ok {
				assert.Equal(t, tt.concurrency, w.Concurrency)
			}
		})
	}
}

func TestWarmer_SelfInvokes(t *testing.T) {
	inv := &fakeInvoker{}
	out, err := testWarmer(t, inv).Handle(context.Background(), &WarmupEvent{Source: WarmupSource, Concurrency: 3})
	require.NoError(t, err)

	body := out.(map[string]interface{})["body"].(WarmupResponse)
	assert.Equal(t, 4, body.InstancesWarmed)

	require.Len(t, inv.inputs, 3)
	for _, in := range inv.inputs {
		assert.Equal(t, "koconnect", aws.ToString(in.FunctionName))
		assert.Equal(t, types.InvocationTypeEvent, in.InvocationType)
		assert.JSONEq(t, `{"source":"warmup","concurrency":0}`, string(in.Payload))
	}
}

func TestWarmer_InvokeFailureOnlyCountsSelf(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("throttled")}
	out, err := testWarmer(t, inv).Handle(context.Background(), &WarmupEvent{Source: WarmupSource, Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, out.(map[string]interface{})["body"].(WarmupResponse).InstancesWarmed)
}
