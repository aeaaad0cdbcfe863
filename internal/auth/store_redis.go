// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/agendia/auth-service/internal/platform/constants"
)

// # Login Throttle

// RedisLoginThrottle implements [LoginThrottle] using Redis counters with TTL.
//
// The counter key is scoped per normalized email, so the budget follows the
// targeted account rather than the attacking IP (the IP dimension is covered
// separately by the HTTP rate-limit middleware).
type RedisLoginThrottle struct {
	client *redis.Client
}

// NewLoginThrottle creates a new Redis-backed [LoginThrottle].
func NewLoginThrottle(client *redis.Client) *RedisLoginThrottle {
	return &RedisLoginThrottle{client: client}
}

/*
RecordFailure increments the failed-attempt counter for the email.

Description: The TTL is (re)set on the first failure only, so the window is
anchored to the start of the burst and cannot be extended indefinitely by
continued attempts.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - int64: Attempt count including this failure
  - error: Execution errors
*/
func (throttle *RedisLoginThrottle) RecordFailure(context context.Context, email string) (int64, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixLoginAttempts + email

	// Atomically increment the counter
	count, err := throttle.client.Incr(context, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_login_throttle_incr_failed: %w", err)
	}

	// Anchor the window when the counter is born
	if count == 1 {
		if err := throttle.client.Expire(context, key, LoginAttemptWindow).Err(); err != nil {
			return count, fmt.Errorf("redis_login_throttle_expire_failed: %w", err)
		}
	}

	return count, nil
}

/*
Attempts returns the current failed-attempt count for the email.

Description: Returns 0 when no counter exists (no failures in the window).

Parameters:
  - context: context.Context
  - email: string

Returns:
  - int64: Current count
  - error: Connectivity errors
*/
func (throttle *RedisLoginThrottle) Attempts(context context.Context, email string) (int64, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixLoginAttempts + email

	// Get the counter from Redis
	count, err := throttle.client.Get(context, key).Int64()

	// Handle errors
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis_login_throttle_get_failed: %w", err)
	}

	// Return the current count
	return count, nil
}

/*
Clear removes the counter after a successful login.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Deletion failures
*/
func (throttle *RedisLoginThrottle) Clear(context context.Context, email string) error {

	// Use constants for key prefix
	key := constants.RedisPrefixLoginAttempts + email

	// Delete the counter from Redis
	if err := throttle.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_login_throttle_clear_failed: %w", err)
	}

	// Return nil on success
	return nil
}
