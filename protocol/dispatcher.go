package protocol

import (
	"context"
	"sync"

	"github.com/sage-x-project/didmediator/didcomm"
	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/sessionctx"
)

// Dispatcher routes an UnpackedMessage to the Handler registered for
// its type URI.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewDispatcher constructs an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register associates typeURI with handler. Later calls for the same
// typeURI replace the previous handler.
func (d *Dispatcher) Register(typeURI string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[typeURI] = handler
}

// Dispatch selects a handler by msg.Type and invokes it.
func (d *Dispatcher) Dispatch(ctx context.Context, session *sessionctx.Session, msg *didcomm.UnpackedMessage) (ProcessMessageResponse, error) {
	d.mu.RLock()
	handler, ok := d.handlers[msg.Type]
	d.mu.RUnlock()

	if !ok {
		return ProcessMessageResponse{}, errs.New(errs.RequestDataError, "no handler registered for message type", nil).WithDetails("type", msg.Type)
	}
	return handler(ctx, session, msg)
}
