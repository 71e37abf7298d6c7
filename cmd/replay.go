// cmd/replay.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domfacade/internal/session"
)

type replayOptions struct {
	page    string
	scripts []string
	events  string
	follow  bool
	dump    bool
}

func newReplayCmd(a *app) *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Fire the events listed in a file against one page",
		Long: `Reads event lines from a file, one per line, and fires them in order. Blank
lines and lines starting with # are skipped. With --follow the file is tailed and
events appended later are fired as they arrive, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.replay(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.page, "page", "p", "", "HTML page to load")
	cmd.Flags().StringArrayVarP(&opts.scripts, "script", "s", nil, "script to run before replaying (repeatable)")
	cmd.Flags().StringVar(&opts.events, "events", "", "file of event lines")
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "keep reading events appended to the file")
	cmd.Flags().BoolVar(&opts.dump, "dump", false, "print the final HTML")
	_ = cmd.MarkFlagRequired("page")
	_ = cmd.MarkFlagRequired("events")
	return cmd
}

func (a *app) replay(ctx context.Context, out io.Writer, opts *replayOptions) error {
	logger := a.logger().With(zap.String("page", opts.page))
	page, err := session.ReadFile(opts.page)
	if err != nil {
		return fmt.Errorf("failed to read page %s: %w", opts.page, err)
	}
	s, err := session.Open(ctx, a.cfg, page, session.WithLogger(logger))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.RunScripts(ctx, opts.scripts...); err != nil {
		return err
	}

	t, err := tail.TailFile(opts.events, tail.Config{
		Follow:    opts.follow,
		ReOpen:    opts.follow,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to open events %s: %w", opts.events, err)
	}
	defer t.Cleanup()
	defer t.Stop()

	fired := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("Replay stopped", zap.Int("events", fired))
			if opts.follow && errors.Is(ctx.Err(), context.Canceled) {
				return a.finishReplay(out, s, opts)
			}
			return ctx.Err()

		case line, ok := <-t.Lines:
			if !ok {
				logger.Info("Replay finished", zap.Int("events", fired))
				return a.finishReplay(out, s, opts)
			}
			if line.Err != nil {
				return fmt.Errorf("failed to read events: %w", line.Err)
			}
			if !session.IsEventLine(line.Text) {
				continue
			}
			dispatched, err := s.FireLine(ctx, line.Text)
			report(out, opts.page, dispatched)
			if err != nil {
				var target *session.TargetError
				if !errors.As(err, &target) {
					return fmt.Errorf("event %q failed: %w", line.Text, err)
				}
				// A missing element does not end a replay.
				logger.Warn("Event skipped", zap.String("line", line.Text), zap.Error(err))
				continue
			}
			fired++
		}
	}
}

func (a *app) finishReplay(out io.Writer, s *session.Session, opts *replayOptions) error {
	if !opts.dump {
		return nil
	}
	html, err := s.Render()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, html)
	return err
}
