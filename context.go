package credcore

import "context"

type tokenDataContextKey struct{}

// WithTokenData attaches verified claims to ctx, typically from HTTP middleware.
func WithTokenData(ctx context.Context, data TokenData) context.Context {
	return context.WithValue(ctx, tokenDataContextKey{}, data)
}

// TokenDataFromContext returns the claims stored by WithTokenData.
func TokenDataFromContext(ctx context.Context) (TokenData, bool) {
	if ctx == nil {
		return TokenData{}, false
	}
	data, ok := ctx.Value(tokenDataContextKey{}).(TokenData)
	return data, ok
}
