/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package resiliency

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Try calling factory function with exponential back-off until timeout is reached.
func RetryGet[T any](ctx context.Context, factory func() (T, error)) (T, error) {
	return RetryGetWithBackoff(ctx, backoff.NewExponentialBackOff(), factory)
}

// Same as RetryGet, but the timeout is expressed as a maximum total retry time
// instead of a context deadline.
func RetryGetFor[T any](ctx context.Context, timeout time.Duration, factory func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = timeout
	return RetryGetWithBackoff(ctx, b, factory)
}

func RetryGetWithBackoff[T any](ctx context.Context, b backoff.BackOff, factory func() (T, error)) (T, error) {
	var lastAttemptErr error

	retval, err := backoff.RetryNotifyWithData(
		factory,
		backoff.WithContext(b, ctx),
		func(err error, d time.Duration) {
			lastAttemptErr = err
		},
	)

	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		// Inform the caller about the timeout AND the last attempt error.
		return *new(T), errors.Join(lastAttemptErr, err)
	case err != nil:
		return *new(T), err
	default:
		return retval, nil
	}
}

// Permanent wraps an error so that retry functions stop immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
