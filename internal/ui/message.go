package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pathwise/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPathwaysFetched MsgKind = iota
	MsgPathwayFetched
	MsgPollTick
	MsgStatusPolled
	MsgTopicCompleted
)

type pathwaysFetched struct {
	pathways []models.Pathway
	err      error
}

type pathwayFetched struct {
	pathway *models.Pathway
	err     error
}

type statusPolled struct {
	seq     int
	status  *models.PathwayStatus
	fetched bool
	err     error
}

type topicCompleted struct {
	topic *models.Topic
	err   error
}

// pathwaysFetchedMsg is the constructor for [MsgPathwaysFetched]
func pathwaysFetchedMsg(pathways []models.Pathway, err error) Msg {
	return Msg{kind: MsgPathwaysFetched, data: pathwaysFetched{pathways, err}}
}

// pathwayFetchedMsg is the constructor for [MsgPathwayFetched]
func pathwayFetchedMsg(pathway *models.Pathway, err error) Msg {
	return Msg{kind: MsgPathwayFetched, data: pathwayFetched{pathway, err}}
}

// pollTickMsg is the constructor for [MsgPollTick]. seq identifies the watch
// session that scheduled it so ticks from an abandoned view are dropped.
func pollTickMsg(seq int) Msg {
	return Msg{kind: MsgPollTick, data: seq}
}

// statusPolledMsg is the constructor for [MsgStatusPolled]
func statusPolledMsg(seq int, status *models.PathwayStatus, fetched bool, err error) Msg {
	return Msg{kind: MsgStatusPolled, data: statusPolled{seq, status, fetched, err}}
}

// topicCompletedMsg is the constructor for [MsgTopicCompleted]
func topicCompletedMsg(topic *models.Topic, err error) Msg {
	return Msg{kind: MsgTopicCompleted, data: topicCompleted{topic, err}}
}
