// Package listview holds the load/render/mutate lifecycle shared by every list
// page of the dashboard.
//
// A List starts Loading, fetches exactly once, and settles as Ready or Failed.
// Mutations patch the held collection only after the remote call succeeds; a
// failed mutation leaves the collection untouched and records a Notice.
package listview

import (
	"context"
	"errors"
)

type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrNotReady is returned by mutations on a list that has not loaded.
var ErrNotReady = errors.New("listview: list is not ready")

// Fetcher loads the full collection for a list.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// List is owned by a single request and is not safe for concurrent use.
type List[T any] struct {
	fetch    Fetcher[T]
	failMsg  string
	started  bool
	state    State
	items    []T
	message  string
	notice   string
	lastErr  error
	onFailed func(error)
}

// New returns a Loading list. failMsg is what the list shows when the fetch
// fails; the underlying error is available through Err for logging only.
func New[T any](fetch Fetcher[T], failMsg string) *List[T] {
	return &List[T]{fetch: fetch, failMsg: failMsg}
}

// OnError registers a hook that receives every fetch or mutation error.
func (l *List[T]) OnError(fn func(error)) *List[T] {
	l.onFailed = fn
	return l
}

// Load runs the fetch the first time it is called and is a no-op afterwards.
// If ctx is done by the time the fetch returns, the result is dropped and the
// list stays Loading.
func (l *List[T]) Load(ctx context.Context) {
	if l.started {
		return
	}
	l.started = true

	items, err := l.fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		l.fail(err)
		l.state = Failed
		l.message = l.failMsg
		l.items = nil
		return
	}
	if items == nil {
		items = []T{}
	}
	l.state = Ready
	l.items = items
}

// Remove calls the remote delete and, on success, drops every item matching
// match while keeping the others in order.
func (l *List[T]) Remove(ctx context.Context, match func(T) bool, call func(context.Context) error, failMsg string) error {
	if l.state != Ready {
		return ErrNotReady
	}
	if err := call(ctx); err != nil {
		l.fail(err)
		l.notice = failMsg
		return err
	}
	kept := make([]T, 0, len(l.items))
	for _, it := range l.items {
		if !match(it) {
			kept = append(kept, it)
		}
	}
	l.items = kept
	l.notice = ""
	return nil
}

// Append calls the remote create and appends the entity it returns.
func (l *List[T]) Append(ctx context.Context, create func(context.Context) (T, error), failMsg string) (T, error) {
	var zero T
	if l.state != Ready {
		return zero, ErrNotReady
	}
	created, err := create(ctx)
	if err != nil {
		l.fail(err)
		l.notice = failMsg
		return zero, err
	}
	l.items = append(l.items, created)
	l.notice = ""
	return created, nil
}

// Create is Append for forms that do not depend on the list: a list that is
// not Ready does not block the call, and the created entity is returned
// without being held.
func (l *List[T]) Create(ctx context.Context, create func(context.Context) (T, error), failMsg string) (T, error) {
	if l.state == Ready {
		return l.Append(ctx, create, failMsg)
	}
	var zero T
	created, err := create(ctx)
	if err != nil {
		l.fail(err)
		l.notice = failMsg
		return zero, err
	}
	l.notice = ""
	return created, nil
}

// Replace calls the remote update and swaps every matching item for the
// returned entity in place.
func (l *List[T]) Replace(ctx context.Context, match func(T) bool, update func(context.Context) (T, error), failMsg string) (T, error) {
	var zero T
	if l.state != Ready {
		return zero, ErrNotReady
	}
	updated, err := update(ctx)
	if err != nil {
		l.fail(err)
		l.notice = failMsg
		return zero, err
	}
	for i, it := range l.items {
		if match(it) {
			l.items[i] = updated
		}
	}
	l.notice = ""
	return updated, nil
}

func (l *List[T]) fail(err error) {
	l.lastErr = err
	if l.onFailed != nil {
		l.onFailed(err)
	}
}

// SetNotice records a message shown above the list, e.g. a validation error
// for a form rendered next to it.
func (l *List[T]) SetNotice(msg string) { l.notice = msg }

func (l *List[T]) State() State { return l.state }

func (l *List[T]) Loading() bool { return l.state == Loading }

func (l *List[T]) Ready() bool { return l.state == Ready }

func (l *List[T]) Failed() bool { return l.state == Failed }

// Items returns a copy of the held collection. It is empty unless Ready.
func (l *List[T]) Items() []T {
	if l.state != Ready {
		return nil
	}
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[T]) Len() int {
	if l.state != Ready {
		return 0
	}
	return len(l.items)
}

// Message is the fixed failure message while Failed, otherwise empty.
func (l *List[T]) Message() string { return l.message }

// Notice is the last mutation or form message, if any.
func (l *List[T]) Notice() string { return l.notice }

// Err is the last underlying error, kept for logs only.
func (l *List[T]) Err() error { return l.lastErr }
