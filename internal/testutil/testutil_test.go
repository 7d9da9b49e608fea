package testutil

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEventually(t *testing.T) {
	var counter int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		atomic.StoreInt32(&counter, 1)
	}()

	Eventually(t, func() bool {
		return atomic.LoadInt32(&counter) == 1
	}, 500*time.Millisecond, 5*time.Millisecond)
}

func TestWithTimeout(t *testing.T) {
	ctx := WithTimeout(t)

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("context should have a deadline")
	}
	if time.Until(deadline) > TestTimeout {
		t.Errorf("deadline too far: %v", deadline)
	}
}

func TestAssertions(t *testing.T) {
	AssertNoError(t, nil)
	AssertError(t, errors.New("x"))
	AssertEqual(t, 1, 1)
	AssertNotEqual(t, "a", "b")
	AssertErrorIs(t, context.Canceled, context.Canceled)
}

func TestMockWriter(t *testing.T) {
	mw := NewMockWriter()
	_, err := mw.Write([]byte("abc"))
	AssertNoError(t, err)
	AssertEqual(t, mw.String(), "abc")
	AssertEqual(t, mw.WriteCount(), 1)

	mw.SetErrorOnNth(2)
	_, err = mw.Write([]byte("d"))
	AssertError(t, err)
	AssertEqual(t, mw.Len(), 3)
}

func TestGuardSink(t *testing.T) {
	ctx := context.Background()
	g := NewGuardSink(t)

	AssertNoError(t, g.WriteContext(ctx, []byte("row\r\n")))
	AssertNoError(t, g.FlushContext(ctx))
	AssertNoError(t, g.CloseContext(ctx))

	AssertEqual(t, g.String(), "row\r\n")
	AssertEqual(t, g.Writes(), 1)
	AssertEqual(t, g.Flushes(), 1)
	AssertEqual(t, g.Closes(), 1)
	AssertEqual(t, g.BlockingCalls(), 0)

	boom := errors.New("boom")
	g.FailWrite(2, boom)
	AssertErrorIs(t, g.WriteContext(ctx, []byte("x")), boom)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	AssertErrorIs(t, g.WriteContext(canceled, []byte("x")), context.Canceled)
}

func TestGuardSink_ReportsBlockingCalls(t *testing.T) {
	inner := &recordingReporter{}
	g := NewGuardSink(inner)

	_, err := g.Write([]byte("x"))
	AssertErrorIs(t, err, ErrBlockingCall)
	AssertErrorIs(t, g.Flush(), ErrBlockingCall)
	AssertErrorIs(t, g.Close(), ErrBlockingCall)
	AssertEqual(t, g.BlockingCalls(), 3)
	AssertEqual(t, inner.count, 3)
}

type recordingReporter struct {
	count int
}

func (r *recordingReporter) Errorf(string, ...any) { r.count++ }
