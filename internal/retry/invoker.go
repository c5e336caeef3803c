package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tryfit/stylist/internal/utils"
)

const (
	defaultMaxRetriesPerKey = 3
	defaultBaseDelay        = time.Second
)

// ErrNoCredentials is returned when an invocation is requested without any
// configured credential. No attempt is made in that case.
var ErrNoCredentials = errors.New("no credentials configured")

// credentialInvalidPatterns are the upstream authentication-rejection markers.
// A failure matching one of them burns the whole key, not just the attempt.
var credentialInvalidPatterns = []string{
	"api key not valid",
	"api_key_invalid",
	"invalid api key",
}

// Policy describes how a single logical external call is executed against a
// pool of interchangeable credentials.
type Policy struct {
	// Keys are tried in order. Must not be empty.
	Keys []string
	// MaxRetriesPerKey bounds the attempts on each key before rotating.
	MaxRetriesPerKey int
	// BaseDelay is the backoff time unit. Attempt n sleeps BaseDelay * 2^n.
	BaseDelay time.Duration
	Logger    *zap.Logger
}

// AttemptFunc performs one attempt of the wrapped call with the given credential.
type AttemptFunc[T any] func(ctx context.Context, key string) (T, error)

// Invoke runs the attempt function against the policy's key pool.
//
// Keys are tried in order with up to MaxRetriesPerKey attempts each. A failure
// matching an authentication-rejection pattern abandons the current key
// immediately and advances to the next one. Transient failures back off
// exponentially between attempts on the same key. When every key is exhausted
// the most recently observed error is returned. The context is checked before
// every attempt and during every backoff sleep.
func Invoke[T any](ctx context.Context, p Policy, attempt AttemptFunc[T]) (T, error) {
	var zero T

	if len(p.Keys) == 0 {
		return zero, ErrNoCredentials
	}

	maxRetries := p.MaxRetriesPerKey
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetriesPerKey
	}

	baseDelay := p.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var lastErr error

	for keyIdx, key := range p.Keys {
		for att := 1; att <= maxRetries; att++ {
			if err := ctx.Err(); err != nil {
				return zero, err
			}

			result, err := attempt(ctx, key)
			if err == nil {
				return result, nil
			}

			lastErr = err

			if IsCredentialInvalid(err) {
				log.Warn("credential rejected, rotating to the next key",
					zap.Int("key_index", keyIdx),
					zap.Error(err),
				)
				break
			}

			log.Debug("transient upstream failure",
				zap.Int("key_index", keyIdx),
				zap.Int("attempt", att),
				zap.Error(err),
			)

			if att < maxRetries {
				backoff := baseDelay << att
				if err := utils.WaitFor(ctx, backoff); err != nil {
					return zero, err
				}
			}
		}
	}

	return zero, lastErr
}

// IsCredentialInvalid reports whether the error looks like an upstream
// authentication rejection rather than a transient failure.
func IsCredentialInvalid(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range credentialInvalidPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}
