package formatter

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/pathwise/internal/models"
	th "github.com/desertthunder/pathwise/internal/testing"
)

func samplePathway() *models.Pathway {
	return &models.Pathway{
		ID:   "pw-1",
		Name: "Distributed Systems",
		Topics: []models.Topic{
			{ID: 11, Name: "Consensus", OrderNumber: 1, Status: models.TopicCompleted, Keywords: []string{"raft", "paxos"}},
			{ID: 12, Name: "Replication", OrderNumber: 2, Status: models.TopicInProgress},
			{ID: 13, Name: "Partitioning", OrderNumber: 3, Status: models.TopicPending},
		},
	}
}

func TestFormatters(t *testing.T) {
	t.Run("PathwayToCSV", func(t *testing.T) {
		data, err := PathwayToCSV(samplePathway())
		if err != nil {
			t.Fatalf("PathwayToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Order,Name,Status,Keywords") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "11,1,Consensus,COMPLETED,raft;paxos") {
			t.Errorf("CSV missing first topic, got: %s", output)
		}

		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) != 4 {
			t.Errorf("expected 4 lines (header + 3 topics), got %d", len(lines))
		}
	})

	t.Run("PathwayToMarkdown", func(t *testing.T) {
		status := &models.PathwayStatus{TotalTopics: 3, CompletedTopicsCount: 1, CompletionPercentage: 33.3}
		output := string(PathwayToMarkdown(samplePathway(), status))

		if !strings.Contains(output, "# Distributed Systems") {
			t.Error("Markdown missing title")
		}
		if !strings.Contains(output, "**Progress**: 1/3 (33.3%)") {
			t.Errorf("Markdown missing progress, got: %s", output)
		}
		if !strings.Contains(output, "- [x] 1. Consensus _(raft, paxos)_") {
			t.Errorf("Markdown missing completed topic, got: %s", output)
		}
		if !strings.Contains(output, "- [ ] 3. Partitioning") {
			t.Errorf("Markdown missing pending topic, got: %s", output)
		}
	})

	t.Run("PathwayToMarkdown Without Status", func(t *testing.T) {
		output := string(PathwayToMarkdown(samplePathway(), nil))
		if strings.Contains(output, "Progress") {
			t.Error("expected no progress line without status")
		}
	})

	t.Run("PathwayToText", func(t *testing.T) {
		output := string(PathwayToText(samplePathway()))

		if !strings.Contains(output, "Pathway: Distributed Systems (pw-1)") {
			t.Errorf("text missing header, got: %s", output)
		}
		if !strings.Contains(output, "2. Replication [in progress]") {
			t.Errorf("text missing topic status, got: %s", output)
		}
	})

	t.Run("PathwaysToText Empty", func(t *testing.T) {
		if got := string(PathwaysToText(nil)); got != "No pathways yet.\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("StatusToText", func(t *testing.T) {
		status := &models.PathwayStatus{
			TotalTopics:          3,
			CompletedTopicsCount: 1,
			PendingTopicsCount:   2,
			CompletionPercentage: 33.3,
			CompletedTopics:      []models.Topic{{Name: "Consensus"}},
		}
		output := string(StatusToText("pw-1", status))

		if !strings.Contains(output, "Pathway pw-1: 1/3 topics completed (33.3%)") {
			t.Errorf("unexpected status line: %s", output)
		}
		if !strings.Contains(output, "Pending: 2") || !strings.Contains(output, "✓ Consensus") {
			t.Errorf("missing details: %s", output)
		}
	})

	t.Run("QuizToMarkdown", func(t *testing.T) {
		quiz := &models.Quiz{
			Topic: "Consensus",
			Questions: []models.QuizQuestion{
				{Type: "mcq", Question: "Which uses terms?", Options: []string{"Raft", "Gossip"}, Answer: "Raft", Explanation: "Leaders are elected per term."},
				{Type: "short_answer", Question: "What is a quorum?", Answer: "A majority"},
			},
		}

		hidden := string(QuizToMarkdown(quiz, false))
		if !strings.Contains(hidden, "a) Raft") || !strings.Contains(hidden, "b) Gossip") {
			t.Errorf("missing options: %s", hidden)
		}
		if strings.Contains(hidden, "**Answer**") {
			t.Error("answers should be hidden")
		}

		shown := string(QuizToMarkdown(quiz, true))
		if !strings.Contains(shown, "**Answer**: A majority") || !strings.Contains(shown, "> Leaders are elected per term.") {
			t.Errorf("missing answers: %s", shown)
		}
	})

	t.Run("ChatToText", func(t *testing.T) {
		output := string(ChatToText([]models.ChatMessage{
			{Role: models.RoleUser, Content: "what is raft?"},
			{Role: models.RoleAssistant, Content: "a consensus algorithm"},
		}))
		if output != "you: what is raft?\ntutor: a consensus algorithm\n" {
			t.Errorf("unexpected transcript %q", output)
		}
	})

	t.Run("RenderMarkdown", func(t *testing.T) {
		output := RenderMarkdown("# Heading\n\nSome **bold** text.", 60)
		if !strings.Contains(output, "Heading") || !strings.Contains(output, "bold") {
			t.Errorf("rendered output lost content: %q", output)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")
		summaries := []models.TopicSummary{{TopicID: 11, Summary: "# Consensus\n\nAgreement among nodes."}}

		result, err := WriteMarkdownExport(samplePathway(), nil, summaries, dir)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		th.AssertDirExists(t, result.Directory)
		if len(result.Files) != 3 {
			t.Fatalf("expected 3 files, got %v", result.Files)
		}
		for _, f := range result.Files {
			th.AssertFileExists(t, f)
		}

		readme := th.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "# Distributed Systems") {
			t.Error("README missing title")
		}
		summary := th.MustReadFile(t, filepath.Join(dir, "topic-11.md"))
		if !strings.Contains(summary, "Agreement among nodes.") {
			t.Error("summary file missing content")
		}
	})

	t.Run("Default Directory", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		result, err := WriteMarkdownExport(samplePathway(), nil, nil, "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Directory != "pw-1" {
			t.Errorf("expected directory pw-1, got %s", result.Directory)
		}
		th.AssertFileExists(t, filepath.Join("pw-1", "topics.csv"))
	})
}
