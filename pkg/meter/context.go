package meter

import "context"

type overrideKeyCtxKey struct{}

// SetOverrideKeyToContext stores a plan override key in the context so
// transport middleware can thread it without widening call sites.
func SetOverrideKeyToContext(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, overrideKeyCtxKey{}, key)
}

// GetOverrideKeyFromContext retrieves the override key from the context,
// if present.
func GetOverrideKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(overrideKeyCtxKey{}).(string)
	return key, ok && key != ""
}
