package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
)

func topicPath(id int, suffix string) string {
	return "/topics/" + strconv.Itoa(id) + suffix
}

// TopicSummary returns the generated markdown summary for a topic.
func (c *Client) TopicSummary(ctx context.Context, id int) (*models.TopicSummary, error) {
	var summary models.TopicSummary
	if err := c.DoJSON(ctx, Request{Method: http.MethodGet, Path: topicPath(id, "/summary")}, &summary); err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d", shared.ErrTopicNotFound, id)
		}
		return nil, err
	}
	return &summary, nil
}

// CompleteTopic marks a topic completed and returns it.
func (c *Client) CompleteTopic(ctx context.Context, id int) (*models.Topic, error) {
	var topic models.Topic
	if err := c.DoJSON(ctx, Request{Method: http.MethodPost, Path: topicPath(id, "/complete")}, &topic); err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d", shared.ErrTopicNotFound, id)
		}
		return nil, err
	}
	return &topic, nil
}

// CurrentTopic returns the first unfinished topic of a pathway, or nil when
// every topic is done.
func (c *Client) CurrentTopic(ctx context.Context, pathwayID string) (*models.Topic, error) {
	var topic *models.Topic
	path := "/topics/" + url.PathEscape(pathwayID) + "/current-topic"
	if err := c.DoJSON(ctx, Request{Method: http.MethodGet, Path: path}, &topic); err != nil {
		return nil, err
	}
	return topic, nil
}
