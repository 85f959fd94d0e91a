package adapter

import "context"

// Locker serializes work per key. The returned release func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}
