package orchestration

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/loomworks/loom/pkg/oppb"
)

// Service exposes the manager over gRPC.
type Service struct {
	oppb.UnimplementedOperationServiceServer
	manager *Manager
}

func NewService(m *Manager) *Service {
	return &Service{manager: m}
}

func (s *Service) StartOperation(ctx context.Context, req *oppb.StartOperationRequest) (*oppb.StartOperationResponse, error) {
	if req == nil || req.Kind == "" {
		return nil, status.Error(codes.InvalidArgument, "operation kind is required")
	}
	var params map[string]any
	if len(req.ParamsJson) > 0 {
		if err := json.Unmarshal(req.ParamsJson, &params); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "decode params: %v", err)
		}
	}
	// The runner outlives the RPC, so it does not run under the request context.
	op, err := s.manager.Start(context.Background(), StartRequest{
		Kind:           req.Kind,
		IdempotencyKey: req.IdempotencyKey,
		Params:         params,
	})
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &oppb.StartOperationResponse{Operation: toPBState(op)}, nil
}

func (s *Service) GetOperation(ctx context.Context, req *oppb.GetOperationRequest) (*oppb.GetOperationResponse, error) {
	if req == nil || req.Id == "" {
		return nil, status.Error(codes.InvalidArgument, "operation id is required")
	}
	return &oppb.GetOperationResponse{Operation: toPBState(s.manager.Get(req.Id))}, nil
}

func toPBState(op Operation) *oppb.OperationState {
	state := &oppb.OperationState{
		Id:             op.ID,
		Kind:           op.Kind,
		Status:         op.Status,
		IdempotencyKey: op.IdempotencyKey,
	}
	if len(op.Stats) > 0 {
		state.Stats = make(map[string]string, len(op.Stats))
		for k, v := range op.Stats {
			state.Stats[k] = v
		}
	}
	if op.Error != nil {
		state.Error = &oppb.OperationError{
			Code:      op.Error.Code,
			Message:   op.Error.Message,
			Retryable: op.Error.Retryable,
		}
	}
	if !op.StartedAt.IsZero() {
		state.CreatedAtMs = op.StartedAt.UnixMilli()
	}
	switch {
	case !op.CompletedAt.IsZero():
		state.UpdatedAtMs = op.CompletedAt.UnixMilli()
	case !op.StartedAt.IsZero():
		state.UpdatedAtMs = op.StartedAt.UnixMilli()
	default:
		state.UpdatedAtMs = time.Now().UnixMilli()
	}
	return state
}
