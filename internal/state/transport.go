package state

import (
	"context"
	"reflect"
)

// Transport is a bidirectional typed message channel to the daemon.
// R is the received message type, S the sent message type.
type Transport[R, S any] interface {
	Send(ctx context.Context, msg S) error
	Receive(ctx context.Context) (R, error)
	Close() error
}

// sameTransport reports whether a and b are the same handle.
// Non-comparable handles are never considered the same.
func sameTransport[R, S any](a, b Transport[R, S]) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	if ta.Kind() == reflect.Pointer {
		return a == b
	}

	// A comparable struct can still hold a non-comparable value in an interface field.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
