package nlp

import (
	"context"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/soundprediction/duocdien/pkg/config"
	"github.com/stretchr/testify/assert"
)

type recordingAlerter struct {
	subjects []string
}

func (a *recordingAlerter) Alert(subject, message string) error {
	a.subjects = append(a.subjects, subject)
	return nil
}

func TestCircuitBreakerClient_TripsAndAlerts(t *testing.T) {
	mock := &mockClient{failUntilCall: 100, errorToReturn: &StatusError{StatusCode: 500}}
	alerter := &recordingAlerter{}
	cfg := config.CircuitBreakerConfig{Enabled: true, MaxRequests: 1, Interval: 60, Timeout: 60, ReadyToTripRatio: 0.5}
	cb := NewCircuitBreakerClient(mock, cfg, alerter, quietLogger(), "gemini")

	for i := 0; i < 3; i++ {
		_, err := cb.Chat(context.Background(), userMsg("q"))
		assert.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Len(t, alerter.subjects, 1)

	_, err := cb.Chat(context.Background(), userMsg("q"))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, mock.callCount, "open breaker must not reach the provider")
}

func TestCircuitBreakerClient_RefusalDoesNotTrip(t *testing.T) {
	mock := &mockClient{failUntilCall: 100, errorToReturn: NewRefusalError("no")}
	cfg := config.CircuitBreakerConfig{Enabled: true, MaxRequests: 1, Interval: 60, Timeout: 60, ReadyToTripRatio: 0.5}
	cb := NewCircuitBreakerClient(mock, cfg, nil, quietLogger(), "gemini")

	for i := 0; i < 5; i++ {
		_, err := cb.Chat(context.Background(), userMsg("q"))
		assert.ErrorIs(t, err, ErrRefusal)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestWithCircuitBreaker_Disabled(t *testing.T) {
	mock := &mockClient{}
	assert.Same(t, Client(mock), WithCircuitBreaker(mock, config.CircuitBreakerConfig{}, nil, nil, "x"))
}
