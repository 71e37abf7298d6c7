// internal/session/session.go
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/domfacade/internal/bridge"
	"github.com/xkilldash9x/domfacade/internal/bridge/wire"
	"github.com/xkilldash9x/domfacade/internal/config"
	"github.com/xkilldash9x/domfacade/internal/dom"
	"github.com/xkilldash9x/domfacade/internal/host/cdphost"
	"github.com/xkilldash9x/domfacade/internal/host/memhost"
	"github.com/xkilldash9x/domfacade/internal/host/propagate"
	"github.com/xkilldash9x/domfacade/internal/jsexec"
)

// ErrNoRenderer is returned by Render when the host cannot serialize its page.
var ErrNoRenderer = errors.New("host cannot render its page")

// Session is one page: a host, the document facade in front of it, and the script
// runtime bound to that document.
type Session struct {
	id      string
	logger  *zap.Logger
	page    *memhost.Host
	parents propagate.ParentLookup
	render  func() (string, error)
	doc     *dom.Document
	runtime *jsexec.Runtime

	mu      sync.Mutex
	closers []func() error
	closed  bool
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	registry *dom.Registry
}

// WithLogger sets the session's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegistry shares a listener registry between sessions.
func WithRegistry(r *dom.Registry) Option {
	return func(o *options) { o.registry = r }
}

// Open builds a session for page according to cfg. The memory host parses page
// itself, the cdp host navigates a browser tab to it, and the wire host ignores it:
// the subprocess named by host.command serves its own page.
func Open(ctx context.Context, cfg config.Interface, page []byte, opts ...Option) (*Session, error) {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	s := &Session{id: uuid.NewString()}
	s.logger = o.logger.Named("session").With(zap.String("session_id", s.id))

	caller, err := s.openHost(ctx, cfg, page)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	caller = bridge.Chain(caller, middleware(cfg.Bridge(), o.logger)...)

	docOpts := []dom.Option{
		dom.WithLogger(o.logger),
		dom.WithDispatchOptions(dom.WithIsolatedListeners(cfg.Dispatch().IsolateListenerErrors)),
	}
	if o.registry != nil {
		docOpts = append(docOpts, dom.WithRegistry(o.registry))
	}
	s.doc = dom.NewDocument(caller, docOpts...)

	s.runtime, err = jsexec.NewRuntime(o.logger, s.doc, jsexec.WithTimeout(cfg.Runtime().ScriptTimeout))
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create script runtime: %w", err)
	}

	s.logger.Info("Session opened", zap.String("host", cfg.Host().Kind), zap.String("document_id", s.doc.ID()))
	return s, nil
}

func (s *Session) openHost(ctx context.Context, cfg config.Interface, page []byte) (bridge.Caller, error) {
	hc := cfg.Host()
	switch hc.Kind {
	case config.HostMemory:
		h, err := memhost.Load(bytes.NewReader(page), memhost.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to load page: %w", err)
		}
		s.page = h
		s.parents = h
		s.render = h.OuterHTML
		return bridge.Serve(h), nil

	case config.HostWire:
		if len(hc.Command) == 0 {
			return nil, fmt.Errorf("wire host needs a command")
		}
		client, err := wire.StartProcess(ctx, s.logger, hc.Command[0], hc.Command[1:]...)
		if err != nil {
			return nil, err
		}
		s.addCloser(client.Close)
		return client, nil

	case config.HostCDP:
		pageURL := "data:text/html;charset=utf-8," + url.PathEscape(string(page))
		tabCtx, cancel, err := cdphost.OpenPage(ctx, pageURL, cdphost.BrowserOptions{
			RemoteURL: hc.CDP.URL,
			Headless:  hc.CDP.Headless,
		}, s.logger)
		if err != nil {
			return nil, err
		}
		s.addCloser(func() error { cancel(); return nil })
		h := cdphost.New(tabCtx, cdphost.NewCDPExecutor(),
			cdphost.WithLogger(s.logger),
			cdphost.WithTimeout(hc.CDP.Timeout),
		)
		s.parents = h
		s.render = h.OuterHTML
		return bridge.Serve(h), nil
	}
	return nil, fmt.Errorf("unknown host kind %q", hc.Kind)
}

func middleware(cfg config.BridgeConfig, logger *zap.Logger) []bridge.Middleware {
	var mws []bridge.Middleware
	if cfg.LogCalls {
		mws = append(mws, bridge.WithLogging(logger))
	}
	if cfg.RateLimit > 0 {
		mws = append(mws, bridge.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	}
	return mws
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) Document() *dom.Document { return s.doc }

func (s *Session) Runtime() *jsexec.Runtime { return s.runtime }

// Page returns the in-memory host, or nil when the session drives another host.
func (s *Session) Page() *memhost.Host { return s.page }

// Render returns the page's current HTML.
func (s *Session) Render() (string, error) {
	if s.render == nil {
		return "", ErrNoRenderer
	}
	return s.render()
}

func (s *Session) addCloser(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

// Close releases the host. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.logger.Debug("Session closed")
	return errors.Join(errs...)
}
