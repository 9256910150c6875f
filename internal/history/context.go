package history

import "context"

type contextKey string

const ctxKeyOperation contextKey = "history_operation"

// ContextWithOperation tags appended rows with the service operation that
// produced them.
func ContextWithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, ctxKeyOperation, operation)
}

// OperationFromContext returns the operation set by ContextWithOperation.
func OperationFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyOperation).(string); ok {
		return v
	}
	return ""
}
