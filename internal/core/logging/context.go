package logging

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	fileIDKey    contextKey = "file_id"
)

// WithRequestID adds the id of the current exchange to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithFileID adds the file an operation targets to the context.
func WithFileID(ctx context.Context, fileID int) context.Context {
	return context.WithValue(ctx, fileIDKey, fileID)
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetFileID retrieves the file ID from the context.
// Returns 0 if not present.
func GetFileID(ctx context.Context) int {
	if id, ok := ctx.Value(fileIDKey).(int); ok {
		return id
	}
	return 0
}
