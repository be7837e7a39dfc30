package auth

import "context"

// Identity is the session context for one request: initialized when the
// token is parsed, discarded with the request. There is no ambient global
// user state anywhere else.
type Identity struct {
	UserID    string
	Role      string
	Name      string
	Email     string
	StudentID string
}

type ctxKey struct{}

var identityKey = ctxKey{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
