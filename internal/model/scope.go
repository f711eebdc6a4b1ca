package model

import "context"

type groupContextKey struct{}

// WithGroup scopes ctx to the ledger owned by groupID. Storage reads and
// writes only ever see rows of that group.
func WithGroup(ctx context.Context, groupID string) context.Context {
	return context.WithValue(ctx, groupContextKey{}, groupID)
}

func GroupFromContext(ctx context.Context) string {
	id, _ := ctx.Value(groupContextKey{}).(string)
	return id
}
