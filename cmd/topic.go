package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/pathwise/internal/formatter"
	"github.com/desertthunder/pathwise/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

func topicID(cmd *cli.Command) (int, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: topic id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: topic id must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// terminalWidth is the stdout width used to wrap rendered Markdown.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return min(w, 120)
	}
	return 80
}

// TopicSummary prints the generated summary, rendered for the terminal unless --raw.
func (r *Runner) TopicSummary(ctx context.Context, cmd *cli.Command) error {
	id, err := topicID(cmd)
	if err != nil {
		return err
	}
	client, err := r.api()
	if err != nil {
		return err
	}

	summary, err := client.TopicSummary(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(summary, true)
	case cmd.Bool("raw"):
		return r.writePlain("%s\n", summary.Summary)
	default:
		return r.writePlain("%s", formatter.RenderMarkdown(summary.Summary, terminalWidth()))
	}
}

// TopicComplete marks a topic completed.
func (r *Runner) TopicComplete(ctx context.Context, cmd *cli.Command) error {
	id, err := topicID(cmd)
	if err != nil {
		return err
	}
	client, err := r.api()
	if err != nil {
		return err
	}

	topic, err := client.CompleteTopic(ctx, id)
	if err != nil {
		return err
	}
	r.logger.Info("topic completed", "topic", topic.ID)

	if cmd.Bool("json") {
		return r.writeJSON(topic, true)
	}
	return r.writePlain("✓ %s completed\n", topic.Name)
}
