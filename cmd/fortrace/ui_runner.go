package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"fortrace/internal/mirror"
	"fortrace/internal/ui"
)

type syncOutcome struct {
	report *mirror.Report
	err    error
}

func runSyncWithUI(ctx context.Context, title string, req *mirror.Request) (*mirror.Report, error) {
	if req == nil {
		return nil, fmt.Errorf("missing sync request")
	}
	return syncWithEvents(ctx, req, func(events <-chan mirror.Event) error {
		model := ui.NewProgressModel(title, req.Pristine, req.Selected, events)
		_, err := tea.NewProgram(model, tea.WithOutput(os.Stdout)).Run()
		return err
	})
}

// syncWithEvents runs the sync in the background and hands its events to
// consume. Events left unread after consume returns are drained, so the sync
// always finishes even when the display stops early.
func syncWithEvents(ctx context.Context, req *mirror.Request, consume func(<-chan mirror.Event) error) (*mirror.Report, error) {
	events := make(chan mirror.Event, 256)
	outcomeCh := make(chan syncOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Sink = mirror.ChannelSink{Ch: events}
		rep, err := mirror.Sync(ctx, reqCopy)
		outcomeCh <- syncOutcome{report: rep, err: err}
		close(events)
	}()

	uiErr := consume(events)
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if outcome.err != nil {
		return outcome.report, outcome.err
	}
	if uiErr != nil {
		logger.Warn().Err(uiErr).Msg("progress display stopped early")
		return outcome.report, fmt.Errorf("progress display: %w", uiErr)
	}
	return outcome.report, nil
}
