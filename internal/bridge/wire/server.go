// internal/bridge/wire/server.go
package wire

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// ServerOption configures Serve.
type ServerOption func(*server)

// WithServerLogger sets the logger used for malformed frames and I/O failures.
func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(s *server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type server struct {
	caller bridge.Caller
	logger *zap.Logger
}

// Serve answers request frames read from r with response frames written to w, one at
// a time, until r is exhausted or ctx ends. A malformed frame is answered with an error
// frame and does not stop the loop.
func Serve(ctx context.Context, r io.Reader, w io.Writer, caller bridge.Caller, opts ...ServerOption) error {
	s := &server{caller: caller, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("wire.server")

	lines := make(chan []byte)
	readErr := make(chan error, 1)

	// The reader exits when r returns EOF or an error; closing r unblocks it.
	go func() {
		defer close(lines)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					readErr <- err
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return fmt.Errorf("failed to read request frame: %w", err)
				default:
					return nil
				}
			}
			frame, err := encodeFrame(s.handle(line))
			if err != nil {
				return fmt.Errorf("failed to encode response frame: %w", err)
			}
			if _, err := w.Write(frame); err != nil {
				return fmt.Errorf("failed to write response frame: %w", err)
			}
		}
	}
}

// handle decodes one request frame and runs it. It never fails: every problem
// becomes an error response.
func (s *server) handle(line []byte) Response {
	var req Request
	if err := codec.Unmarshal(line, &req); err != nil {
		s.logger.Warn("Malformed request frame", zap.Error(err))
		return Response{Error: fmt.Sprintf("malformed request frame: %v", err)}
	}
	if req.Op == "" {
		return Response{ID: req.ID, Error: "request has no op"}
	}

	result, err := s.caller.Call(req.Op, req.Args...)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}
