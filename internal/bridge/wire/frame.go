// internal/bridge/wire/frame.go
package wire

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// Request is one bridge call on the wire.
type Request struct {
	ID   string `json:"id"`
	Op   string `json:"op"`
	Args []any  `json:"args"`
}

// Response answers the Request with the same ID. Error is empty on success.
type Response struct {
	ID     string `json:"id"`
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
}

// codec keeps numbers as json.Number so handles survive the trip without passing
// through float64.
var codec = json.Config{
	EscapeHTML:             false,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// RemoteError is a failure reported by the other side of the wire.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %s", e.Op, e.Message)
}

// ProtocolError reports a frame that breaks the request/response contract.
type ProtocolError struct {
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wire protocol error: %s: %v", e.Message, e.Err)
	}
	return "wire protocol error: " + e.Message
}

// Unwrap returns the underlying decode or I/O error, if any.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func encodeFrame(v any) ([]byte, error) {
	b, err := codec.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
