package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/pathwise/internal/models"
)

var (
	_ list.Item = pathwayItem{}
	_ list.Item = topicItem{}
)

// pathwayItem wraps [models.Pathway] to implement [list.Item].
type pathwayItem struct {
	pathway models.Pathway
}

func (i pathwayItem) FilterValue() string { return i.pathway.Name }
func (i pathwayItem) Title() string       { return i.pathway.Name }
func (i pathwayItem) Description() string {
	desc := fmt.Sprintf("%d topics", len(i.pathway.Topics))
	if !i.pathway.Created.IsZero() {
		desc = fmt.Sprintf("%s • created %s", desc, i.pathway.Created.Format("2006-01-02"))
	}
	return desc
}

// topicItem wraps [models.Topic] to implement [list.Item].
type topicItem struct {
	topic models.Topic
}

func (i topicItem) FilterValue() string { return i.topic.Name }
func (i topicItem) Title() string {
	return fmt.Sprintf("%s %d. %s", styles.badge(i.topic.Status), i.topic.OrderNumber, i.topic.Name)
}
func (i topicItem) Description() string {
	if len(i.topic.Keywords) == 0 {
		return strings.ToLower(string(i.topic.Status))
	}
	return strings.Join(i.topic.Keywords, ", ")
}

func pathwayItems(pathways []models.Pathway) []list.Item {
	items := make([]list.Item, len(pathways))
	for i, p := range pathways {
		items[i] = pathwayItem{pathway: p}
	}
	return items
}

func topicItems(topics []models.Topic) []list.Item {
	items := make([]list.Item, len(topics))
	for i, t := range topics {
		items[i] = topicItem{topic: t}
	}
	return items
}
