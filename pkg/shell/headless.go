package shell

import (
	"slices"
	"sync"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/pkg/status"
)

// reply is a canned native answer.
type reply struct {
	code   int
	values []any
}

// HeadlessNative answers every native call without a host: dialogs select
// nothing, menus are unknown, the background process has not started.
//
// Every call is recorded and can be inspected with Calls. Answers can be
// replaced per method with SetReply.
type HeadlessNative struct {
	mu        sync.Mutex
	calls     []Call
	overrides map[Method]reply
}

// NewHeadlessNative creates a HeadlessNative with the default answers.
func NewHeadlessNative() *HeadlessNative {
	return &HeadlessNative{overrides: make(map[Method]reply)}
}

// SetReply makes every later call to method answer with code and values.
func (h *HeadlessNative) SetReply(method Method, code int, values ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.overrides[method] = reply{code: code, values: values}
}

// Calls returns a copy of the calls recorded so far, in arrival order.
func (h *HeadlessNative) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.calls)
}

// CallsTo returns the recorded calls to method.
func (h *HeadlessNative) CallsTo(method Method) []Call {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Call
	for _, c := range h.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Invoke records the call and answers synchronously.
func (h *HeadlessNative) Invoke(method Method, cb Callback, args ...any) {
	logger.Debug("native %s %v", method, args)

	h.mu.Lock()
	h.calls = append(h.calls, Call{Method: method, Args: slices.Clone(args)})
	r, ok := h.overrides[method]
	h.mu.Unlock()

	if !ok {
		r = defaultReply(method)
	}
	cb(r.code, r.values...)
}

func defaultReply(method Method) reply {
	ok := int(status.OK)

	switch method {
	case MethodShowOpenDialog:
		return reply{code: ok, values: []any{[]string{}}}
	case MethodShowSaveDialog:
		return reply{code: ok, values: []any{""}}
	case MethodIsNetworkDrive:
		return reply{code: ok, values: []any{false}}
	case MethodGetProcessState:
		return reply{code: int(status.ErrProcessNotYetStarted), values: []any{0}}
	case MethodGetPendingFilesToOpen, MethodGetDroppedFiles:
		return reply{code: ok, values: []any{"[]"}}
	case MethodGetRemoteDebuggingPort:
		return reply{code: ok, values: []any{0}}
	case MethodGetMenuItemState:
		return reply{code: int(status.ErrNotFound), values: []any{false, false}}
	case MethodGetMenuTitle:
		return reply{code: int(status.ErrNotFound), values: []any{""}}
	case MethodGetMenuPosition:
		return reply{code: int(status.ErrNotFound), values: []any{"", -1}}
	default:
		return reply{code: ok}
	}
}
