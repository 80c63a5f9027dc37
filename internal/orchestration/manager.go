// Package orchestration tracks durable pipeline operations: a small state
// machine (QUEUED → RUNNING → SUCCEEDED/FAILED) with idempotency-keyed starts,
// cloned snapshots, and coded-error classification.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loomworks/loom/pkg/staging"
)

// Operation statuses.
const (
	StatusQueued    = "QUEUED"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// Error codes surfaced on failed operations.
const (
	CodeOperationNotFound   = "E_OPERATION_NOT_FOUND"
	CodeEndpointUnreachable = "E_ENDPOINT_UNREACHABLE"
	CodeAuthInvalid         = "E_AUTH_INVALID"
	CodeTimeout             = "E_TIMEOUT"
	CodeUnknown             = "E_UNKNOWN"
)

// OperationError is the coded error carried by a failed operation.
type OperationError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Operation is the externally visible snapshot of one operation.
type Operation struct {
	ID             string            `json:"id"`
	Kind           string            `json:"kind"`
	Status         string            `json:"status"`
	IdempotencyKey string            `json:"idempotencyKey,omitempty"`
	Stats          map[string]string `json:"stats,omitempty"`
	Error          *OperationError   `json:"error,omitempty"`
	StartedAt      time.Time         `json:"startedAt"`
	CompletedAt    time.Time         `json:"completedAt,omitempty"`
}

// RunnerFunc executes one operation kind. Progress is reported through the
// handle; a returned error fails the operation.
type RunnerFunc func(ctx context.Context, h *Handle, params map[string]any) error

// StartRequest describes an operation to start.
type StartRequest struct {
	Kind           string         `json:"kind"`
	IdempotencyKey string         `json:"idempotencyKey,omitempty"`
	Params         map[string]any `json:"params,omitempty"`
}

// Manager owns the operation table and executes runners.
type Manager struct {
	mu      sync.Mutex
	ops     map[string]*opState
	byKey   map[string]string
	runners map[string]RunnerFunc
}

type opState struct {
	op             Operation
	sliceCommitted bool
}

func NewManager() *Manager {
	return &Manager{
		ops:     make(map[string]*opState),
		byKey:   make(map[string]string),
		runners: make(map[string]RunnerFunc),
	}
}

// RegisterRunner binds an operation kind to its executor. Registrations are
// startup-time; later registrations replace earlier ones.
func (m *Manager) RegisterRunner(kind string, fn RunnerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runners[kind] = fn
}

// Start begins an operation, or returns the existing state when the
// idempotency key has been seen before. The runner executes asynchronously.
func (m *Manager) Start(ctx context.Context, req StartRequest) (Operation, error) {
	if strings.TrimSpace(req.Kind) == "" {
		return Operation{}, fmt.Errorf("operation kind is required")
	}

	m.mu.Lock()
	if req.IdempotencyKey != "" {
		if id, ok := m.byKey[req.IdempotencyKey]; ok {
			snap := m.snapshotLocked(id)
			m.mu.Unlock()
			return snap, nil
		}
	}
	runner, ok := m.runners[req.Kind]
	if !ok {
		m.mu.Unlock()
		return Operation{}, fmt.Errorf("no runner registered for kind %q", req.Kind)
	}

	id := uuid.NewString()
	state := &opState{op: Operation{
		ID:             id,
		Kind:           req.Kind,
		Status:         StatusQueued,
		IdempotencyKey: req.IdempotencyKey,
		Stats:          make(map[string]string),
		StartedAt:      time.Now().UTC(),
	}}
	m.ops[id] = state
	if req.IdempotencyKey != "" {
		m.byKey[req.IdempotencyKey] = id
	}
	snap := m.snapshotLocked(id)
	m.mu.Unlock()

	go m.run(ctx, id, runner, req.Params)
	return snap, nil
}

// Get returns a cloned snapshot without blocking. Unknown IDs come back as a
// FAILED state rather than an error so pollers see a terminal status.
func (m *Manager) Get(id string) Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ops[id]; !ok {
		return Operation{
			ID:     id,
			Status: StatusFailed,
			Error: &OperationError{
				Code:    CodeOperationNotFound,
				Message: fmt.Sprintf("operation %s not found", id),
			},
		}
	}
	return m.snapshotLocked(id)
}

func (m *Manager) run(ctx context.Context, id string, runner RunnerFunc, params map[string]any) {
	m.transition(id, StatusRunning, nil)
	h := &Handle{manager: m, id: id}
	err := runner(ctx, h, params)
	if err == nil {
		m.transition(id, StatusSucceeded, nil)
		return
	}
	m.mu.Lock()
	committed := m.ops[id].sliceCommitted
	m.mu.Unlock()
	opErr := Classify(err)
	if committed {
		// After the first committed slice a blind retry would double-process.
		opErr.Retryable = false
	}
	m.transition(id, StatusFailed, opErr)
}

func (m *Manager) transition(id, status string, opErr *OperationError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.ops[id]
	if !ok {
		return
	}
	state.op.Status = status
	state.op.Error = opErr
	if status == StatusSucceeded || status == StatusFailed {
		state.op.CompletedAt = time.Now().UTC()
	}
}

func (m *Manager) snapshotLocked(id string) Operation {
	state := m.ops[id]
	snap := state.op
	snap.Stats = make(map[string]string, len(state.op.Stats))
	for k, v := range state.op.Stats {
		snap.Stats[k] = v
	}
	if state.op.Error != nil {
		e := *state.op.Error
		snap.Error = &e
	}
	return snap
}

// Handle lets a runner report progress on its operation.
type Handle struct {
	manager *Manager
	id      string
}

// ID returns the operation ID.
func (h *Handle) ID() string { return h.id }

// SetStat records one stats entry on the operation.
func (h *Handle) SetStat(key, value string) {
	h.manager.mu.Lock()
	defer h.manager.mu.Unlock()
	if state, ok := h.manager.ops[h.id]; ok {
		state.op.Stats[key] = value
	}
}

// SliceCommitted marks that at least one slice has durably committed. After
// this, failures are reported non-retryable.
func (h *Handle) SliceCommitted() {
	h.manager.mu.Lock()
	defer h.manager.mu.Unlock()
	if state, ok := h.manager.ops[h.id]; ok {
		state.sliceCommitted = true
	}
}

// Classify maps an error to the coded operation error contract. Coded errors
// pass through; the rest is classified by kind and message.
func Classify(err error) *OperationError {
	if err == nil {
		return nil
	}
	var coded staging.CodedError
	if errors.As(err, &coded) {
		return &OperationError{
			Code:      coded.CodeValue(),
			Message:   err.Error(),
			Retryable: coded.RetryableStatus(),
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &OperationError{Code: CodeTimeout, Message: err.Error(), Retryable: true}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unreachable"):
		return &OperationError{Code: CodeEndpointUnreachable, Message: err.Error(), Retryable: true}
	case strings.Contains(msg, "auth"):
		return &OperationError{Code: CodeAuthInvalid, Message: err.Error(), Retryable: false}
	default:
		return &OperationError{Code: CodeUnknown, Message: err.Error(), Retryable: true}
	}
}
