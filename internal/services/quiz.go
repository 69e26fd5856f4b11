package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
)

// GenerateQuiz asks for a quiz on one topic. The request is validated before
// it is sent.
func (c *Client) GenerateQuiz(ctx context.Context, q models.QuizRequest) (*models.Quiz, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	req, err := NewJSONRequest(http.MethodPost, PathGenerateQuiz, q)
	if err != nil {
		return nil, err
	}

	var quiz models.Quiz
	if err := c.DoJSON(ctx, req, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}
