// cmd/run.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/domfacade/internal/session"
)

type runOptions struct {
	pages   []string
	scripts []string
	events  []string
	dump    bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load pages, run scripts against them and fire events",
		Long: `Each page gets its own session: a host holding the page, a document facade and
a script runtime. Scripts run in order, then each event is fired at the first element
its selector matches. Pages run concurrently; output is printed in page order.

Event lines have the form "<type> <selector> [key]", for example
"keydown input[name=comment] x" or "submit form".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.pages, "page", "p", nil, "HTML page to load; .br files are brotli-compressed (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.scripts, "script", "s", nil, "script to run in every page (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.events, "event", "e", nil, "event line to fire after the scripts (repeatable)")
	cmd.Flags().BoolVar(&opts.dump, "dump", false, "print each page's final HTML")
	_ = cmd.MarkFlagRequired("page")
	return cmd
}

func (a *app) run(ctx context.Context, out io.Writer, opts *runOptions) error {
	reports := make([]bytes.Buffer, len(opts.pages))
	g, gctx := errgroup.WithContext(ctx)
	for i, page := range opts.pages {
		g.Go(func() error {
			return a.runPage(gctx, &reports[i], page, opts)
		})
	}
	err := g.Wait()
	for i := range reports {
		if _, werr := reports[i].WriteTo(out); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

func (a *app) runPage(ctx context.Context, out io.Writer, path string, opts *runOptions) error {
	logger := a.logger().With(zap.String("page", path))
	page, err := session.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read page %s: %w", path, err)
	}

	s, err := session.Open(ctx, a.cfg, page, session.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open session for %s: %w", path, err)
	}
	defer s.Close()

	if err := s.RunScripts(ctx, opts.scripts...); err != nil {
		return err
	}
	for _, line := range opts.events {
		dispatched, err := s.FireLine(ctx, line)
		report(out, path, dispatched)
		if err != nil {
			return fmt.Errorf("%s: event %q failed: %w", path, line, err)
		}
	}

	if opts.dump {
		html, err := s.Render()
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", path, err)
		}
		fmt.Fprintln(out, html)
	}
	return nil
}

// report prints one line per dispatched event.
func report(out io.Writer, page string, dispatched []session.Dispatched) {
	for _, d := range dispatched {
		verdict := "allowed"
		if d.Prevented {
			verdict = "prevented"
		}
		target := fmt.Sprintf("node=%d", d.Target)
		if d.Tag != "" {
			target += " <" + d.Tag + ">"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", page, d.Type, target, verdict)
	}
}
