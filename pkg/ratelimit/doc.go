/*
Package ratelimit holds admission control for recflow services.

  - concurrency: Caps how many operations hold a slot at once

	limiter, _ := concurrency.New(8)
	if err := limiter.Acquire(ctx); err != nil {
		return err
	}
	defer limiter.Release()
*/
package ratelimit
