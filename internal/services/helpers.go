package services

import "context"

// ensuredContext substitutes a background context for nil so store calls can always derive deadlines.
func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
