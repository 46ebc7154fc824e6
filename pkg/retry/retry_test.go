package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "chatarchiver/pkg/errors"
	"chatarchiver/pkg/logger"
)

func testConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Logger:      logger.NewTestLogger(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return &errs.Error{Type: errs.ErrorTypeNetwork, Message: "boom"}
		}
		return nil
	}, testConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: "boom", Code: 503}
	}, testConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoDoesNotRetryNonRetryable(t *testing.T) {
	calls := 0
	authErr := &errs.Error{Type: errs.ErrorTypeAuth, Message: "expired", Code: 401}
	err := Do(func() error {
		calls++
		return authErr
	}, testConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, authErr) || err == authErr)
}

func TestDoRetriesUnknownTypeByStatusCode(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: "bad gateway", Code: 502}
	}, testConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsUnknownTypeOnTerminalStatusCode(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: "gone", Code: 404}
	}, testConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExponentialBackoffGrows(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	assert.Equal(t, 10*time.Millisecond, eb.NextDelay(1))
	assert.Equal(t, 20*time.Millisecond, eb.NextDelay(2))
	assert.Equal(t, 40*time.Millisecond, eb.NextDelay(3))
	assert.Equal(t, time.Second, eb.NextDelay(20))
}
