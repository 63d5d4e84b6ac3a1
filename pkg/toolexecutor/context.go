package toolexecutor

import "context"

type callIDKey struct{}

// ContextWithCallID attaches the call ID Dispatch assigned to a tool call.
func ContextWithCallID(ctx context.Context, callID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if callID == "" {
		return ctx
	}
	return context.WithValue(ctx, callIDKey{}, callID)
}

// CallIDFromContext returns the call ID of the tool call running under ctx.
func CallIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(callIDKey{}).(string); ok {
		return v
	}
	return ""
}
