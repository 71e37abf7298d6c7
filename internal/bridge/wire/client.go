// internal/bridge/wire/client.go
package wire

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// Client is a bridge.Caller that sends each call as a frame and blocks for the
// answer. Calls are serialized: there is never more than one request in flight.
type Client struct {
	mu     sync.Mutex
	r      *bufio.Reader
	w      io.Writer
	closer io.Closer
	logger *zap.Logger
}

var _ bridge.Caller = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client's logger.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCloser sets what Close releases, typically the peer process.
func WithCloser(closer io.Closer) ClientOption {
	return func(c *Client) { c.closer = closer }
}

// NewClient creates a client reading responses from r and writing requests to w.
func NewClient(r io.Reader, w io.Writer, opts ...ClientOption) *Client {
	c := &Client{
		r:      bufio.NewReader(r),
		w:      w,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("wire.client")
	return c
}

// Call sends one request and waits for its response.
func (c *Client) Call(name string, args ...any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if args == nil {
		args = []any{}
	}
	req := Request{ID: uuid.NewString(), Op: name, Args: args}
	frame, err := encodeFrame(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", name, err)
	}
	if _, err := c.w.Write(frame); err != nil {
		return nil, fmt.Errorf("failed to send %s request: %w", name, err)
	}

	resp, err := c.readResponse()
	if err != nil {
		return nil, err
	}
	if resp.ID != req.ID {
		return nil, &ProtocolError{Message: fmt.Sprintf("response id %q does not match request id %q", resp.ID, req.ID)}
	}
	if resp.Error != "" {
		return nil, &RemoteError{Op: name, Message: resp.Error}
	}
	return resp.Result, nil
}

// Close releases the peer, if one was configured.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func (c *Client) readResponse() (*Response, error) {
	for {
		line, err := c.r.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var resp Response
			if derr := codec.Unmarshal(line, &resp); derr != nil {
				return nil, &ProtocolError{Message: "malformed response frame", Err: derr}
			}
			return &resp, nil
		}
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, &ProtocolError{Message: "connection closed while awaiting response", Err: err}
		}
	}
}
