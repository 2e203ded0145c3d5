package rabbitmq

import (
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestConnectExhaustsAttempts(t *testing.T) {
	attempts := 0
	dial := func(url string) (*amqp.Connection, error) {
		attempts++
		return nil, errors.New("connection refused")
	}

	start := time.Now()
	client, err := connect(dial, "amqp://localhost", 3, time.Millisecond)

	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Equal(t, 3, attempts)
	// two delays of 1ms between three attempts, none after the last
	assert.Less(t, time.Since(start), time.Second)
}

func TestConnectDefaultsAppliedForZeroValues(t *testing.T) {
	attempts := 0
	dial := func(url string) (*amqp.Connection, error) {
		attempts++
		return nil, errors.New("connection refused")
	}

	// zero maxAttempts falls back to DefaultMaxAttempts; keep the delay tiny
	// by passing a positive value so the test stays fast
	_, err := connect(dial, "amqp://localhost", 0, time.Microsecond)

	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Equal(t, DefaultMaxAttempts, attempts)
}
