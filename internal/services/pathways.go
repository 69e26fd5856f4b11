package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
)

func pathwayPath(id string, suffix string) string {
	return "/pathways/" + url.PathEscape(id) + suffix
}

// ListPathways returns the current user's pathways.
func (c *Client) ListPathways(ctx context.Context) ([]models.Pathway, error) {
	var pathways []models.Pathway
	if err := c.DoJSON(ctx, Request{Method: http.MethodGet, Path: PathPathways}, &pathways); err != nil {
		return nil, err
	}
	return pathways, nil
}

// GetPathway fetches one pathway with its topics.
func (c *Client) GetPathway(ctx context.Context, id string) (*models.Pathway, error) {
	var p models.Pathway
	if err := c.DoJSON(ctx, Request{Method: http.MethodGet, Path: pathwayPath(id, "")}, &p); err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", shared.ErrPathwayNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

// CreatePathway creates a pathway from an ordered list of topic names.
func (c *Client) CreatePathway(ctx context.Context, name string, topics []string) (*models.Pathway, error) {
	payload := models.NewPathwayCreate(name, topics)
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	req, err := NewJSONRequest(http.MethodPost, PathPathways, payload)
	if err != nil {
		return nil, err
	}

	var p models.Pathway
	if err := c.DoJSON(ctx, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GeneratePathway asks the server to build a pathway from seed topics.
func (c *Client) GeneratePathway(ctx context.Context, name string, topics []string) (*models.Pathway, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: at least one topic is required", shared.ErrMissingArgument)
	}

	query := url.Values{"user_topics": topics}
	if name != "" {
		query.Set("pathway_name", name)
	}

	var p models.Pathway
	if err := c.DoJSON(ctx, Request{Method: http.MethodPost, Path: PathGeneratePathway, Query: query}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PathwayStatus fetches completion statistics for a pathway.
func (c *Client) PathwayStatus(ctx context.Context, id string) (*models.PathwayStatus, error) {
	var status models.PathwayStatus
	if err := c.DoJSON(ctx, Request{Method: http.MethodGet, Path: pathwayPath(id, "/status")}, &status); err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", shared.ErrPathwayNotFound, id)
		}
		return nil, err
	}
	return &status, nil
}

// UploadPDFs attaches documents to a pathway as multipart "files" parts.
// Ingestion continues server-side after the call returns.
func (c *Client) UploadPDFs(ctx context.Context, id string, paths []string) (*models.UploadResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", shared.ErrMissingArgument)
	}

	body, contentType, err := multipartFiles("files", paths)
	if err != nil {
		return nil, err
	}

	req := Request{
		Method:      http.MethodPost,
		Path:        pathwayPath(id, "/upload-pdfs"),
		Body:        body,
		ContentType: contentType,
	}

	var result models.UploadResult
	if err := c.DoJSON(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Chat sends a message with the prior conversation to the pathway's documents.
func (c *Client) Chat(ctx context.Context, id string, message string, history []models.ChatMessage) (*models.ChatReply, error) {
	if history == nil {
		history = []models.ChatMessage{}
	}
	payload := models.ChatRequest{Message: message, History: history}
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	req, err := NewJSONRequest(http.MethodPost, pathwayPath(id, "/chat"), payload)
	if err != nil {
		return nil, err
	}

	var reply models.ChatReply
	if err := c.DoJSON(ctx, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func multipartFiles(field string, paths []string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range paths {
		if err := addFile(w, field, p); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func addFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}
