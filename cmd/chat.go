package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/pathwise/internal/formatter"
	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/repositories"
	"github.com/desertthunder/pathwise/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultChatHistory = 20

func (r *Runner) chatRepo() (*repositories.ChatRepository, error) {
	if _, err := r.api(); err != nil {
		return nil, err
	}
	if r.chats == nil {
		return nil, fmt.Errorf("%w: chat history store not initialized", shared.ErrServiceUnavailable)
	}
	return r.chats, nil
}

// ChatSend asks a question about a pathway's documents. Earlier turns are
// sent as history and the new exchange is stored.
func (r *Runner) ChatSend(ctx context.Context, cmd *cli.Command) error {
	id, err := pathwayID(cmd)
	if err != nil {
		return err
	}
	message := strings.TrimSpace(cmd.StringArg("message"))
	if message == "" {
		return fmt.Errorf("%w: message", shared.ErrMissingArgument)
	}

	chats, err := r.chatRepo()
	if err != nil {
		return err
	}

	limit := cmd.Int("history")
	if limit <= 0 {
		limit = defaultChatHistory
	}
	history, err := chats.History(id, limit)
	if err != nil {
		return err
	}

	reply, err := r.client.Chat(ctx, id, message, history)
	if err != nil {
		return err
	}

	if err := chats.Append(id,
		models.ChatMessage{Role: models.RoleUser, Content: message},
		models.ChatMessage{Role: models.RoleAssistant, Content: reply.Answer},
	); err != nil {
		r.logger.Warn("could not store chat turn", "error", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(reply, true)
	}
	if cmd.Bool("raw") {
		return r.writePlain("%s\n", reply.Answer)
	}
	return r.writePlain("%s", formatter.RenderMarkdown(reply.Answer, terminalWidth()))
}

// ChatHistory prints the stored conversation for a pathway.
func (r *Runner) ChatHistory(ctx context.Context, cmd *cli.Command) error {
	id, err := pathwayID(cmd)
	if err != nil {
		return err
	}
	chats, err := r.chatRepo()
	if err != nil {
		return err
	}

	history, err := chats.History(id, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(history, true)
	}
	if len(history) == 0 {
		return r.writePlain("No conversation yet.\n")
	}
	return r.writeBytes(formatter.ChatToText(history))
}

// ChatClear forgets the stored conversation for a pathway.
func (r *Runner) ChatClear(ctx context.Context, cmd *cli.Command) error {
	id, err := pathwayID(cmd)
	if err != nil {
		return err
	}
	chats, err := r.chatRepo()
	if err != nil {
		return err
	}

	ok, err := confirm(fmt.Sprintf("Clear chat history for pathway %s?", id), cmd.Bool("yes"))
	if err != nil {
		return err
	}
	if !ok {
		return r.writePlain("Cancelled\n")
	}

	n, err := chats.Clear(id)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Removed %d message(s)\n", n)
}
