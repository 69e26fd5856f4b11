// package formatter renders pathways, progress, quizzes and chat transcripts as plain text, Markdown and CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
)

// PathwayToCSV converts a pathway's topics to CSV with columns: ID, Order, Name, Status, Keywords
func PathwayToCSV(p *models.Pathway) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Order", "Name", "Status", "Keywords"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, topic := range p.Topics {
		record := []string{
			strconv.Itoa(topic.ID),
			strconv.Itoa(topic.OrderNumber),
			topic.Name,
			string(topic.Status),
			strings.Join(topic.Keywords, ";"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PathwayToMarkdown converts a pathway to Markdown, optionally with its progress.
func PathwayToMarkdown(p *models.Pathway, status *models.PathwayStatus) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)
	if !p.Created.IsZero() {
		fmt.Fprintf(&buf, "**Created**: %s\n", p.Created.Format("2006-01-02"))
	}
	fmt.Fprintf(&buf, "**Topics**: %d\n", len(p.Topics))
	if status != nil {
		fmt.Fprintf(&buf, "**Progress**: %d/%d (%s)\n",
			status.CompletedTopicsCount, status.TotalTopics, shared.FormatPercentage(status.CompletionPercentage))
	}

	buf.WriteString("\n## Topics\n\n")
	for _, topic := range p.Topics {
		check := " "
		if topic.Status == models.TopicCompleted {
			check = "x"
		}
		fmt.Fprintf(&buf, "- [%s] %d. %s", check, topic.OrderNumber, topic.Name)
		if len(topic.Keywords) > 0 {
			fmt.Fprintf(&buf, " _(%s)_", strings.Join(topic.Keywords, ", "))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// PathwayToText converts a pathway to plain text.
func PathwayToText(p *models.Pathway) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Pathway: %s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(&buf, "Topics: %d\n\n", len(p.Topics))

	for _, topic := range p.Topics {
		fmt.Fprintf(&buf, "%d. %s [%s]\n", topic.OrderNumber, topic.Name, topicStatus(topic.Status))
	}

	return buf.Bytes()
}

// PathwaysToText renders one line per pathway.
func PathwaysToText(pathways []models.Pathway) []byte {
	var buf bytes.Buffer
	if len(pathways) == 0 {
		buf.WriteString("No pathways yet.\n")
		return buf.Bytes()
	}
	for _, p := range pathways {
		fmt.Fprintf(&buf, "%s  %s (%d topics)\n", p.ID, p.Name, len(p.Topics))
	}
	return buf.Bytes()
}

// StatusToText renders pathway progress, listing completed topics.
func StatusToText(id string, s *models.PathwayStatus) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Pathway %s: %d/%d topics completed (%s)\n",
		id, s.CompletedTopicsCount, s.TotalTopics, shared.FormatPercentage(s.CompletionPercentage))
	if s.PendingTopicsCount > 0 {
		fmt.Fprintf(&buf, "Pending: %d\n", s.PendingTopicsCount)
	}
	for _, t := range s.CompletedTopics {
		fmt.Fprintf(&buf, "  ✓ %s\n", t.Name)
	}
	return buf.Bytes()
}

// QuizToMarkdown renders a quiz. Answers and explanations are included only when showAnswers is set.
func QuizToMarkdown(q *models.Quiz, showAnswers bool) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Quiz: %s\n\n", q.Topic)
	for i, question := range q.Questions {
		fmt.Fprintf(&buf, "## %d. %s\n\n", i+1, question.Question)
		for j, opt := range question.Options {
			fmt.Fprintf(&buf, "%c) %s\n", 'a'+j, opt)
		}
		if len(question.Options) > 0 {
			buf.WriteString("\n")
		}
		if showAnswers {
			fmt.Fprintf(&buf, "**Answer**: %s\n\n", question.Answer)
			if question.Explanation != "" {
				fmt.Fprintf(&buf, "> %s\n\n", question.Explanation)
			}
		}
	}
	return buf.Bytes()
}

// ChatToText renders a chat transcript.
func ChatToText(history []models.ChatMessage) []byte {
	var buf bytes.Buffer
	for _, m := range history {
		who := "you"
		if m.Role == models.RoleAssistant {
			who = "tutor"
		}
		fmt.Fprintf(&buf, "%s: %s\n", who, m.Content)
	}
	return buf.Bytes()
}

// RenderMarkdown renders md for the terminal with glamour, wrapping at width.
//
// Falls back to the raw Markdown when the renderer can't be built.
func RenderMarkdown(md string, width int) string {
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}

	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(rendered) + "\n"
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports a pathway to a dedicated directory.
//
// Directory name defaults to the pathway ID.
// Creates {dir}/README.md, {dir}/topics.csv and {dir}/topic-{id}.md for each summary given.
func WriteMarkdownExport(p *models.Pathway, status *models.PathwayStatus, summaries []models.TopicSummary, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = p.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	write := func(name string, data []byte) error {
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		result.Files = append(result.Files, path)
		return nil
	}

	if err := write("README.md", PathwayToMarkdown(p, status)); err != nil {
		return nil, err
	}

	csvData, err := PathwayToCSV(p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}
	if err := write("topics.csv", csvData); err != nil {
		return nil, err
	}

	for _, s := range summaries {
		if err := write(fmt.Sprintf("topic-%d.md", s.TopicID), []byte(s.Summary)); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func topicStatus(s models.TopicStatus) string {
	if s == "" {
		return "pending"
	}
	return strings.ToLower(strings.ReplaceAll(string(s), "_", " "))
}
