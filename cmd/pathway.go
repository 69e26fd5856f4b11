package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pathwise/internal/cache"
	"github.com/desertthunder/pathwise/internal/formatter"
	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
	"github.com/desertthunder/pathwise/internal/tasks"
	"github.com/urfave/cli/v3"
)

// statusPoller returns the cache-aware poller, building a memory-backed one
// when the client was injected.
func (r *Runner) statusPoller() (*tasks.StatusPoller, error) {
	client, err := r.api()
	if err != nil {
		return nil, err
	}
	if r.poller == nil {
		r.poller = tasks.NewStatusPoller(client, cache.NewMemory[string, models.PathwayStatus](nil), tasks.PollerOpts{
			Interval: r.config.Polling.Interval,
			TTL:      r.config.Polling.CacheTTL,
			Logger:   r.logger,
		})
	}
	return r.poller, nil
}

func pathwayID(cmd *cli.Command) (string, error) {
	id := cmd.StringArg("id")
	if id == "" {
		return "", fmt.Errorf("%w: pathway id", shared.ErrMissingArgument)
	}
	return id, nil
}

// PathwayList prints the signed-in user's pathways.
func (r *Runner) PathwayList(ctx context.Context, cmd *cli.Command) error {
	client, err := r.api()
	if err != nil {
		return err
	}

	pathways, err := client.ListPathways(ctx)
	if err != nil {
		return err
	}
	r.logger.Debug("fetched pathways", "count", len(pathways))

	if cmd.Bool("json") {
		return r.writeJSON(pathways, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.PathwaysToText(pathways))
}

// PathwayGet prints one pathway with its topics.
func (r *Runner) PathwayGet(ctx context.Context, cmd *cli.Command) error {
	id, err := pathwayID(cmd)
	if err != nil {
		return err
	}
	client, err := r.api()
	if err != nil {
		return err
	}

	pathway, err := client.GetPathway(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(pathway, cmd.Bool("pretty"))
	case cmd.Bool("markdown"):
		return r.writeBytes(formatter.PathwayToMarkdown(pathway, nil))
	default:
		return r.writeBytes(formatter.PathwayToText(pathway))
	}
}

// PathwayCreate creates a pathway from topic names in the given order.
func (r *Runner) PathwayCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")
	topics := cmd.StringSlice("topic")
	if name == "" {
		return fmt.Errorf("%w: --name", shared.ErrMissingArgument)
	}
	if len(topics) == 0 {
		return fmt.Errorf("%w: at least one --topic", shared.ErrMissingArgument)
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	pathway, err := client.CreatePathway(ctx, name, topics)
	if err != nil {
		return err
	}
	r.logger.Info("pathway created", "id", pathway.ID, "topics", len(pathway.Topics))

	if cmd.Bool("json") {
		return r.writeJSON(pathway, true)
	}
	r.writePlain("✓ Created pathway %s (%s)\n", pathway.Name, pathway.ID)
	return r.writeBytes(formatter.PathwayToText(pathway))
}

// PathwayGenerate asks the API to build a pathway from free-form topics.
func (r *Runner) PathwayGenerate(ctx context.Context, cmd *cli.Command) error {
	topics := cmd.StringSlice("topic")
	if len(topics) == 0 {
		return fmt.Errorf("%w: at least one --topic", shared.ErrMissingArgument)
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	r.writePlain("→ Generating pathway from %d topic(s)...\n", len(topics))
	pathway, err := client.GeneratePathway(ctx, cmd.String("name"), topics)
	if err != nil {
		return err
	}
	r.logger.Info("pathway generated", "id", pathway.ID, "topics", len(pathway.Topics))

	if cmd.Bool("json") {
		return r.writeJSON(pathway, true)
	}
	r.writePlain("✓ Generated pathway %s (%s)\n", pathway.Name, pathway.ID)
	return r.writeBytes(formatter.PathwayToText(pathway))
}

// PathwayStatus prints completion for one pathway, read through the status
// cache. With --watch it keeps polling until the pathway is complete.
func (r *Runner) PathwayStatus(ctx context.Context, cmd *cli.Command) error {
	id, err := pathwayID(cmd)
	if err != nil {
		return err
	}
	poller, err := r.statusPoller()
	if err != nil {
		return err
	}

	if cmd.Bool("watch") {
		return r.watchStatus(ctx, poller, id)
	}

	status, fetched, err := poller.Tick(ctx, id)
	if err != nil {
		return err
	}
	r.logger.Debug("status", "pathway", id, "fetched", fetched)

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.StatusToText(id, status))
}

func (r *Runner) watchStatus(ctx context.Context, poller *tasks.StatusPoller, id string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan tasks.ProgressUpdate, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- poller.Run(ctx, id, updates)
	}()

	r.writePlain("→ Polling every %s (Ctrl+C to stop)\n", poller.Interval())
	for {
		select {
		case u := <-updates:
			r.writePlain("[%s] %s\n", u.Phase, u.Message)
			if status, ok := u.Data.(*models.PathwayStatus); ok && status.Done() {
				cancel()
				<-errc
				return r.writePlain("✓ Pathway complete\n")
			}
		case err := <-errc:
			return err
		}
	}
}

// PathwayStatusAll checks every pathway with a bounded, rate limited worker pool.
func (r *Runner) PathwayStatusAll(ctx context.Context, cmd *cli.Command) error {
	client, err := r.api()
	if err != nil {
		return err
	}
	poller, err := r.statusPoller()
	if err != nil {
		return err
	}

	pathways, err := client.ListPathways(ctx)
	if err != nil {
		return err
	}
	if len(pathways) == 0 {
		return r.writePlain("No pathways yet.\n")
	}

	opts := tasks.SweepOpts{Workers: r.config.Polling.Workers, RateLimit: r.config.Polling.RateLimit}
	if w := cmd.Int("workers"); w > 0 {
		opts.Workers = w
	}

	progress := make(chan tasks.ProgressUpdate, len(pathways))
	results, err := poller.Sweep(ctx, pathways, opts, progress)
	close(progress)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type row struct {
			ID     string                `json:"id"`
			Name   string                `json:"name"`
			Status *models.PathwayStatus `json:"status,omitempty"`
			Cached bool                  `json:"cached"`
			Error  string                `json:"error,omitempty"`
		}
		rows := make([]row, len(results))
		for i, res := range results {
			rows[i] = row{ID: res.PathwayID, Name: res.Name, Status: res.Status, Cached: res.Cached}
			if res.Err != nil {
				rows[i].Error = res.Err.Error()
			}
		}
		return r.writeJSON(rows, true)
	}

	for u := range progress {
		r.logger.Debug(u.Message)
	}

	r.writePlainHeader("Pathway Progress")
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			r.writePlain("✗ %s: %v\n", res.Name, res.Err)
			continue
		}
		source := ""
		if res.Cached {
			source = " (cached)"
		}
		r.writePlain("%s %s: %d/%d (%s)%s\n", doneMark(res.Status), res.Name,
			res.Status.CompletedTopicsCount, res.Status.TotalTopics,
			shared.FormatPercentage(res.Status.CompletionPercentage), source)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d status checks failed", shared.ErrAPIRequest, failed, len(results))
	}
	return nil
}

func doneMark(s *models.PathwayStatus) string {
	if s.Done() {
		return "✓"
	}
	return "•"
}

// PathwayUpload uploads PDFs matching the given glob patterns.
func (r *Runner) PathwayUpload(ctx context.Context, cmd *cli.Command) error {
	id, err := pathwayID(cmd)
	if err != nil {
		return err
	}
	patterns := cmd.StringSlice("file")
	if len(patterns) == 0 {
		return fmt.Errorf("%w: at least one --file", shared.ErrMissingArgument)
	}

	paths, err := shared.ExpandPaths(patterns)
	if err != nil {
		return err
	}
	if err := shared.RequireExt(paths, ".pdf"); err != nil {
		return err
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	r.writePlain("→ Uploading %d file(s)...\n", len(paths))
	result, err := client.UploadPDFs(ctx, id, paths)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	r.writePlain("✓ %s\n", result.Message)
	return r.writePlain("Embedding: %s\n", result.EmbeddingStatus)
}

// PathwayCurrent prints the first topic that is not yet completed.
func (r *Runner) PathwayCurrent(ctx context.Context, cmd *cli.Command) error {
	id, err := pathwayID(cmd)
	if err != nil {
		return err
	}
	client, err := r.api()
	if err != nil {
		return err
	}

	topic, err := client.CurrentTopic(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(topic, true)
	}
	if topic == nil {
		return r.writePlain("✓ Every topic is completed\n")
	}
	return r.writePlain("%d. %s (topic %d)\n", topic.OrderNumber, topic.Name, topic.ID)
}

// PathwayExport writes a pathway as Markdown and CSV into a directory.
func (r *Runner) PathwayExport(ctx context.Context, cmd *cli.Command) error {
	id, err := pathwayID(cmd)
	if err != nil {
		return err
	}
	client, err := r.api()
	if err != nil {
		return err
	}
	poller, err := r.statusPoller()
	if err != nil {
		return err
	}

	pathway, err := client.GetPathway(ctx, id)
	if err != nil {
		return err
	}

	status, _, err := poller.Tick(ctx, id)
	if err != nil {
		r.logger.Warn("exporting without progress", "error", err)
		status = nil
	}

	var summaries []models.TopicSummary
	if cmd.Bool("summaries") {
		for _, topic := range pathway.Topics {
			summary, err := client.TopicSummary(ctx, topic.ID)
			if err != nil {
				r.logger.Warn("skipping summary", "topic", topic.ID, "error", err)
				continue
			}
			summaries = append(summaries, *summary)
		}
	}

	result, err := formatter.WriteMarkdownExport(pathway, status, summaries, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Infof("pathway exported to %v", result.Directory)
	r.writePlain("✓ Exported %s to %s\n", pathway.Name, result.Directory)
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	return nil
}
