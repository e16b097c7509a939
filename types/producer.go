package types

import "context"

/*
Producer computes the value to cache for a key.

It is the cache's only contact with the outside world: an HTTP GET, a
database query, an expensive computation. The cache calls it when the key
is absent or stale and stores whatever it returns. It may have side effects
and may fail; failures are handed back to the caller of Get untouched.

The context is the one passed to Get. The cache never adds a deadline of its
own.
*/
type Producer func(ctx context.Context) (string, error)

// Static returns a Producer that always yields v.
func Static(v string) Producer {
	return func(context.Context) (string, error) { return v, nil }
}
