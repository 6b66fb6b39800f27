package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorRecoveryManager retries named operations under registered policies.
type ErrorRecoveryManager struct {
	logger        *logrus.Logger
	retryPolicies map[string]*RetryPolicy
	mu            sync.RWMutex
}

// RetryPolicy defines retry behavior for failed operations
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// NewErrorRecoveryManager creates a manager preloaded with DefaultRetryPolicies.
func NewErrorRecoveryManager(logger *logrus.Logger) *ErrorRecoveryManager {
	if logger == nil {
		logger = logrus.New()
	}
	erm := &ErrorRecoveryManager{
		logger:        logger,
		retryPolicies: make(map[string]*RetryPolicy),
	}
	for name, policy := range DefaultRetryPolicies() {
		erm.retryPolicies[name] = policy
	}
	return erm
}

// RegisterRetryPolicy registers a retry policy for a specific operation
func (erm *ErrorRecoveryManager) RegisterRetryPolicy(name string, policy *RetryPolicy) {
	erm.mu.Lock()
	defer erm.mu.Unlock()

	erm.retryPolicies[name] = policy
}

func (erm *ErrorRecoveryManager) policy(name string) *RetryPolicy {
	erm.mu.RLock()
	defer erm.mu.RUnlock()
	if p, ok := erm.retryPolicies[name]; ok {
		return p
	}
	return &RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// calculateDelay calculates the delay with optional jitter
func (erm *ErrorRecoveryManager) calculateDelay(baseDelay time.Duration, policy *RetryPolicy) time.Duration {
	if !policy.JitterEnabled {
		return baseDelay
	}

	// Add up to 25% jitter
	jitter := time.Duration(float64(baseDelay) * 0.25 * (0.5 - float64(time.Now().UnixNano()%1000)/1000.0))
	return baseDelay + jitter
}

// ExecuteWithRetry runs operation until it succeeds, the policy is exhausted
// or ctx is done. Unknown operation names get a default policy.
func (erm *ErrorRecoveryManager) ExecuteWithRetry(
	ctx context.Context,
	operationName string,
	operation func() error,
) error {
	start := time.Now()
	retryPolicy := erm.policy(operationName)

	delay := retryPolicy.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= retryPolicy.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation()
		if err == nil {
			if attempt > 0 {
				erm.logger.WithFields(logrus.Fields{
					"operation": operationName,
					"attempts":  attempt + 1,
					"duration":  time.Since(start),
				}).Info("Operation recovered after retry")
			}
			return nil
		}

		lastErr = err

		// Don't retry on last attempt
		if attempt == retryPolicy.MaxRetries {
			break
		}

		erm.logger.WithFields(logrus.Fields{
			"operation": operationName,
			"attempt":   attempt + 1,
			"error":     err.Error(),
			"delay":     delay,
		}).Warn("Operation failed, retrying")

		timer := time.NewTimer(erm.calculateDelay(delay, retryPolicy))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * retryPolicy.BackoffFactor)
		if delay > retryPolicy.MaxDelay {
			delay = retryPolicy.MaxDelay
		}
	}

	erm.logger.WithFields(logrus.Fields{
		"operation": operationName,
		"attempts":  retryPolicy.MaxRetries + 1,
		"duration":  time.Since(start),
		"error":     lastErr.Error(),
	}).Error("Operation failed after all retries")

	return lastErr
}

// DefaultRetryPolicies returns default retry policies for startup operations
func DefaultRetryPolicies() map[string]*RetryPolicy {
	return map[string]*RetryPolicy{
		"redis_connect": {
			MaxRetries:    3,
			InitialDelay:  250 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 2.0,
			JitterEnabled: true,
		},
	}
}
