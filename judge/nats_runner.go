package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"collegeconnect/natsclient"
)

// NatsRunner sends test cases to a sandboxed execution service over NATS
// request/reply and decodes its verdicts.
type NatsRunner struct {
	Client  *natsclient.NatsClient
	Subject string
	Timeout time.Duration
}

func NewNatsRunner(client *natsclient.NatsClient, subject string, timeout time.Duration) *NatsRunner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NatsRunner{Client: client, Subject: subject, Timeout: timeout}
}

type executeRequest struct {
	Code           string `json:"code"`
	Language       string `json:"language"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

func (r *NatsRunner) RunTestCase(ctx context.Context, code, language, input, expectedOutput string) (Result, error) {
	payload, err := json.Marshal(executeRequest{
		Code:           code,
		Language:       language,
		Input:          input,
		ExpectedOutput: expectedOutput,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to serialize execute request: %w", err)
	}

	timeout := r.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}

	msg, err := r.Client.Request(r.Subject, payload, timeout)
	if err != nil {
		return Result{}, fmt.Errorf("execute request failed: %w", err)
	}

	var res Result
	if err := json.Unmarshal(msg.Data, &res); err != nil {
		return Result{}, fmt.Errorf("failed to parse execution result: %w", err)
	}
	return res, nil
}
