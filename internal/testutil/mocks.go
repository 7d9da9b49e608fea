package testutil

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBlockingCall is returned by GuardSink when a blocking primitive is used.
var ErrBlockingCall = errors.New("blocking primitive called on context-only sink")

// MockWriter is a test writer that can simulate various write conditions
// including delays, errors, and write counting. It only offers the blocking
// io.Writer primitive.
type MockWriter struct {
	buf         *bytes.Buffer
	mu          sync.Mutex
	writeDelay  time.Duration
	errorOnNth  int
	writeCount  int
	shouldError bool
	err         error
}

// NewMockWriter creates a new MockWriter.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		buf: &bytes.Buffer{},
	}
}

// Write implements io.Writer interface with configurable behavior.
func (mw *MockWriter) Write(p []byte) (int, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.writeCount++

	if mw.writeDelay > 0 {
		time.Sleep(mw.writeDelay)
	}

	if mw.shouldError {
		return 0, mw.err
	}

	if mw.errorOnNth > 0 && mw.writeCount == mw.errorOnNth {
		return 0, errors.New("simulated error")
	}

	return mw.buf.Write(p)
}

// String returns the current buffer contents.
func (mw *MockWriter) String() string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.String()
}

// Len returns the current buffer length.
func (mw *MockWriter) Len() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.Len()
}

// WriteCount returns the number of Write calls.
func (mw *MockWriter) WriteCount() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.writeCount
}

// SetWriteDelay configures a delay for each write operation.
func (mw *MockWriter) SetWriteDelay(delay time.Duration) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.writeDelay = delay
}

// SetErrorOnNth configures the writer to error on the nth write.
func (mw *MockWriter) SetErrorOnNth(n int) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.errorOnNth = n
}

// SetAlwaysError configures the writer to always return the given error.
func (mw *MockWriter) SetAlwaysError(err error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.shouldError = true
	mw.err = err
}

// GuardSink is a context-aware test sink that also exposes the blocking
// primitives (Write, Flush, Close) and fails the test the moment any of them
// is called.
type GuardSink struct {
	t Reporter

	mu         sync.Mutex
	buf        bytes.Buffer
	writes     int
	flushes    int
	closes     int
	blocking   int
	writeErr   error
	errOnWrite int
	flushErr   error
}

// Reporter receives GuardSink violations; *testing.T satisfies it.
type Reporter interface {
	Errorf(format string, args ...any)
}

// NewGuardSink creates a GuardSink reporting violations to t.
func NewGuardSink(t Reporter) *GuardSink {
	return &GuardSink{t: t}
}

// WriteContext records p.
func (g *GuardSink) WriteContext(ctx context.Context, p []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	g.writes++
	if g.writeErr != nil && (g.errOnWrite == 0 || g.errOnWrite == g.writes) {
		return g.writeErr
	}
	g.buf.Write(p)
	return nil
}

// FlushContext counts a flush.
func (g *GuardSink) FlushContext(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	g.flushes++
	return g.flushErr
}

// CloseContext counts a close.
func (g *GuardSink) CloseContext(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closes++
	return nil
}

// Write is the blocking primitive; calling it fails the test.
func (g *GuardSink) Write(p []byte) (int, error) {
	g.violation("Write")
	return 0, ErrBlockingCall
}

// Flush is the blocking primitive; calling it fails the test.
func (g *GuardSink) Flush() error {
	g.violation("Flush")
	return ErrBlockingCall
}

// Close is the blocking primitive; calling it fails the test.
func (g *GuardSink) Close() error {
	g.violation("Close")
	return ErrBlockingCall
}

func (g *GuardSink) violation(name string) {
	g.mu.Lock()
	g.blocking++
	g.mu.Unlock()
	g.t.Errorf("blocking %s called on sink", name)
}

// FailWrite makes the nth WriteContext call (1-based, 0 = every call) return err.
func (g *GuardSink) FailWrite(nth int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errOnWrite = nth
	g.writeErr = err
}

// FailFlush makes every FlushContext call return err.
func (g *GuardSink) FailFlush(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.flushErr = err
}

// String returns everything written so far.
func (g *GuardSink) String() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buf.String()
}

// Writes returns the number of WriteContext calls.
func (g *GuardSink) Writes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes
}

// Flushes returns the number of FlushContext calls.
func (g *GuardSink) Flushes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.flushes
}

// Closes returns the number of CloseContext calls.
func (g *GuardSink) Closes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closes
}

// BlockingCalls returns how many blocking primitives were invoked.
func (g *GuardSink) BlockingCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.blocking
}
