package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pathwise/internal/formatter"
	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
	"github.com/urfave/cli/v3"
)

// QuizGenerate generates a quiz for a topic. Answers are hidden unless --answers.
func (r *Runner) QuizGenerate(ctx context.Context, cmd *cli.Command) error {
	id, err := topicID(cmd)
	if err != nil {
		return err
	}

	req := models.QuizRequest{
		TopicID:      id,
		Difficulty:   cmd.String("difficulty"),
		NumQuestions: cmd.Int("questions"),
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	r.writePlain("→ Generating %d %s question(s)...\n", req.NumQuestions, req.Difficulty)
	quiz, err := client.GenerateQuiz(ctx, req)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(quiz, true)
	}

	md := string(formatter.QuizToMarkdown(quiz, cmd.Bool("answers")))
	if cmd.Bool("raw") {
		return r.writePlain("%s", md)
	}
	return r.writePlain("%s", formatter.RenderMarkdown(md, terminalWidth()))
}
