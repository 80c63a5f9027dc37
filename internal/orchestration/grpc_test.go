package orchestration

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/loomworks/loom/pkg/oppb"
)

func TestServiceStartAndGet(t *testing.T) {
	m := NewManager()
	m.RegisterRunner("ingest", func(ctx context.Context, h *Handle, params map[string]any) error {
		if params["datasetSlug"] != "jira-issues" {
			t.Errorf("params = %+v", params)
		}
		h.SetStat("slicesDone", "1")
		return nil
	})
	svc := NewService(m)

	started, err := svc.StartOperation(context.Background(), &oppb.StartOperationRequest{
		Kind:       "ingest",
		ParamsJson: []byte(`{"datasetSlug":"jira-issues"}`),
	})
	if err != nil {
		t.Fatalf("StartOperation: %v", err)
	}
	if started.Operation.Id == "" || started.Operation.CreatedAtMs == 0 {
		t.Fatalf("operation = %+v", started.Operation)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := svc.GetOperation(context.Background(), &oppb.GetOperationRequest{Id: started.Operation.Id})
		if err != nil {
			t.Fatalf("GetOperation: %v", err)
		}
		if got.Operation.Status == StatusSucceeded {
			if got.Operation.Stats["slicesDone"] != "1" {
				t.Fatalf("stats = %+v", got.Operation.Stats)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("operation stuck in %s", got.Operation.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServiceStartRejectsUnknownKind(t *testing.T) {
	svc := NewService(NewManager())
	_, err := svc.StartOperation(context.Background(), &oppb.StartOperationRequest{Kind: "nope"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("err = %v", err)
	}
}

func TestServiceGetUnknownIsTerminal(t *testing.T) {
	svc := NewService(NewManager())
	got, err := svc.GetOperation(context.Background(), &oppb.GetOperationRequest{Id: "missing"})
	if err != nil {
		t.Fatalf("GetOperation: %v", err)
	}
	if got.Operation.Status != StatusFailed || got.Operation.Error.Code != CodeOperationNotFound {
		t.Fatalf("operation = %+v", got.Operation)
	}
}
