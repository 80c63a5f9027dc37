package orchestration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/loomworks/loom/pkg/staging"
)

func waitStatus(t *testing.T, m *Manager, id, want string) Operation {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		op := m.Get(id)
		if op.Status == want {
			return op
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("operation %s never reached %s (last: %s)", id, want, m.Get(id).Status)
	return Operation{}
}

func TestStartIsIdempotent(t *testing.T) {
	m := NewManager()
	block := make(chan struct{})
	m.RegisterRunner("ingest", func(ctx context.Context, h *Handle, params map[string]any) error {
		<-block
		return nil
	})

	first, err := m.Start(context.Background(), StartRequest{Kind: "ingest", IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, err := m.Start(context.Background(), StartRequest{Kind: "ingest", IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %s vs %s", first.ID, second.ID)
	}
	close(block)
	waitStatus(t, m, first.ID, StatusSucceeded)
}

func TestRunnerSuccessRecordsStats(t *testing.T) {
	m := NewManager()
	m.RegisterRunner("ingest", func(ctx context.Context, h *Handle, params map[string]any) error {
		h.SetStat("slicesDone", "3")
		h.SliceCommitted()
		return nil
	})
	op, err := m.Start(context.Background(), StartRequest{Kind: "ingest"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := waitStatus(t, m, op.ID, StatusSucceeded)
	if final.Stats["slicesDone"] != "3" {
		t.Fatalf("stats = %+v", final.Stats)
	}
	if final.Error != nil {
		t.Fatalf("error = %+v", final.Error)
	}
	if final.CompletedAt.IsZero() {
		t.Fatal("completedAt not set")
	}
}

func TestFailureBeforeFirstSliceIsRetryable(t *testing.T) {
	m := NewManager()
	m.RegisterRunner("ingest", func(ctx context.Context, h *Handle, params map[string]any) error {
		return fmt.Errorf("endpoint unreachable: connection refused")
	})
	op, _ := m.Start(context.Background(), StartRequest{Kind: "ingest"})
	final := waitStatus(t, m, op.ID, StatusFailed)
	if final.Error == nil || final.Error.Code != CodeEndpointUnreachable || !final.Error.Retryable {
		t.Fatalf("error = %+v", final.Error)
	}
}

func TestFailureAfterCommittedSliceIsNotRetryable(t *testing.T) {
	m := NewManager()
	m.RegisterRunner("ingest", func(ctx context.Context, h *Handle, params map[string]any) error {
		h.SliceCommitted()
		return fmt.Errorf("endpoint unreachable: connection reset")
	})
	op, _ := m.Start(context.Background(), StartRequest{Kind: "ingest"})
	final := waitStatus(t, m, op.ID, StatusFailed)
	if final.Error == nil || final.Error.Code != CodeEndpointUnreachable {
		t.Fatalf("error = %+v", final.Error)
	}
	if final.Error.Retryable {
		t.Fatal("failure after a committed slice must not be retryable")
	}
}

func TestGetUnknownOperation(t *testing.T) {
	m := NewManager()
	op := m.Get("nope")
	if op.Status != StatusFailed {
		t.Fatalf("status = %q", op.Status)
	}
	if op.Error == nil || op.Error.Code != CodeOperationNotFound {
		t.Fatalf("error = %+v", op.Error)
	}
}

func TestGetReturnsClonedSnapshot(t *testing.T) {
	m := NewManager()
	m.RegisterRunner("ingest", func(ctx context.Context, h *Handle, params map[string]any) error {
		h.SetStat("stageRef", "stage-1")
		return nil
	})
	op, _ := m.Start(context.Background(), StartRequest{Kind: "ingest"})
	final := waitStatus(t, m, op.ID, StatusSucceeded)
	final.Stats["stageRef"] = "tampered"
	if m.Get(op.ID).Stats["stageRef"] != "stage-1" {
		t.Fatal("snapshot mutation leaked into manager state")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err       error
		code      string
		retryable bool
	}{
		{context.DeadlineExceeded, CodeTimeout, true},
		{fmt.Errorf("host unreachable"), CodeEndpointUnreachable, true},
		{fmt.Errorf("auth token rejected"), CodeAuthInvalid, false},
		{fmt.Errorf("wat"), CodeUnknown, true},
		{&staging.Error{Code: staging.CodeStageFinalized, Retryable: false, Err: fmt.Errorf("stage closed")}, string(staging.CodeStageFinalized), false},
	}
	for _, tc := range cases {
		got := Classify(tc.err)
		if got.Code != tc.code || got.Retryable != tc.retryable {
			t.Fatalf("Classify(%v) = %+v, want code=%s retryable=%v", tc.err, got, tc.code, tc.retryable)
		}
	}
}
