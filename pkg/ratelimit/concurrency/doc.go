/*
Package concurrency bounds how many operations run at once.

The server uses a Limiter to cap concurrent exports: a request that finds no
free slot waits for one until its context ends.

	limiter, err := concurrency.New(4)
	if err != nil {
		return err
	}
	if err := limiter.Acquire(ctx); err != nil {
		return err // ctx ended while queued
	}
	defer limiter.Release()

Waiters are served first come, first served. TryAcquire never jumps the queue.
*/
package concurrency
