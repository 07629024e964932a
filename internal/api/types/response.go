// internal/api/types/response.go
package types

// Response is the envelope of every JSON body the API returns.
// Data is omitted on failures and Message is omitted on successes that carry data.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// OK wraps data in a successful envelope.
func OK[T any](message string, data T) Response[T] {
	return Response[T]{Success: true, Message: message, Data: data}
}

// Fail builds a failed envelope carrying only a message.
func Fail(message string) Response[any] {
	return Response[any]{Success: false, Message: message}
}
