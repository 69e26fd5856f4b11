package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PathwayListView ViewState = iota
	WatchView
	ConfirmView
)

// PathwayClient is the part of the API client the TUI calls.
type PathwayClient interface {
	ListPathways(ctx context.Context) ([]models.Pathway, error)
	GetPathway(ctx context.Context, id string) (*models.Pathway, error)
	CompleteTopic(ctx context.Context, id int) (*models.Topic, error)
}

// StatusSource performs one cache-aware status check, see [tasks.StatusPoller].
type StatusSource interface {
	Tick(ctx context.Context, id string) (*models.PathwayStatus, bool, error)
	Interval() time.Duration
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	client      PathwayClient
	poller      StatusSource
	width       int
	height      int
	pathwayList list.Model
	topicList   list.Model
	selected    *models.Pathway
	pending     *models.Topic
	status      *models.PathwayStatus
	fetched     bool
	polling     bool
	pollSeq     int
	lastPoll    time.Time
	notice      string
	spinner     spinner.Model
	bar         progress.Model
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, client PathwayClient, poller StatusSource) *Model {
	return &Model{
		ctx:         ctx,
		view:        PathwayListView,
		client:      client,
		poller:      poller,
		pathwayList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		topicList:   list.New(nil, list.NewDefaultDelegate(), 0, 0),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init fetches the pathway list.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPathways(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pathwayList.SetSize(msg.Width-4, msg.Height-8)
		m.topicList.SetSize(msg.Width-4, msg.Height-14)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PathwayListView:
			return m.handlePathwayListKeys(msg)
		case WatchView:
			return m.handleWatchKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPathwaysFetched:
		data := msg.data.(pathwaysFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.pathwayList.SetItems(pathwayItems(data.pathways))
		m.pathwayList.Title = "Learning Pathways"

	case MsgPathwayFetched:
		data := msg.data.(pathwayFetched)
		if data.err != nil {
			m.notice = styles.err.Render(data.err.Error())
			return m, nil
		}
		return m, m.startWatch(data.pathway)

	case MsgPollTick:
		seq := msg.data.(int)
		if seq != m.pollSeq || m.selected == nil {
			return m, nil
		}
		return m, m.poll()

	case MsgStatusPolled:
		data := msg.data.(statusPolled)
		if data.seq != m.pollSeq {
			return m, nil
		}
		m.polling = false
		m.lastPoll = time.Now()
		if data.err != nil {
			if errors.Is(data.err, shared.ErrRenewalFailed) {
				m.err = data.err
				return m, nil
			}
			m.notice = styles.warn.Render(fmt.Sprintf("poll failed: %v", data.err))
		} else {
			m.status = data.status
			m.fetched = data.fetched
			m.notice = ""
		}
		return m, m.scheduleTick(data.seq)

	case MsgTopicCompleted:
		data := msg.data.(topicCompleted)
		m.view = WatchView
		m.pending = nil
		if data.err != nil {
			m.notice = styles.err.Render(fmt.Sprintf("could not complete topic: %v", data.err))
			return m, nil
		}
		m.applyTopic(*data.topic)
		m.notice = styles.ok.Render(fmt.Sprintf("✓ %s completed", data.topic.Name))
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		if errors.Is(m.err, shared.ErrRenewalFailed) {
			return styles.err.Render("Your session has ended. Run `pathwise auth login` to sign in again.\n\nPress q to quit")
		}
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PathwayListView:
		return m.renderPathwayList()
	case WatchView:
		return m.renderWatch()
	case ConfirmView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handlePathwayListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pathwayList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.pathwayList, cmd = m.pathwayList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.pathwayList.SelectedItem().(pathwayItem); ok {
			return m, m.fetchPathway(item.pathway.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pathwayList, cmd = m.pathwayList.Update(msg)
	return m, cmd
}

func (m *Model) handleWatchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.stopWatch()
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		if m.polling {
			return m, nil
		}
		m.pollSeq++
		return m, m.poll()
	case key.Matches(msg, m.keys.complete):
		item, ok := m.topicList.SelectedItem().(topicItem)
		if !ok || item.topic.Status == models.TopicCompleted {
			return m, nil
		}
		topic := item.topic
		m.pending = &topic
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.topicList, cmd = m.topicList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		if m.pending == nil {
			m.view = WatchView
			return m, nil
		}
		return m, m.completeTopic(m.pending.ID)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.pending = nil
		m.view = WatchView
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PathwayListView:
		m.pathwayList, cmd = m.pathwayList.Update(msg)
	case WatchView:
		m.topicList, cmd = m.topicList.Update(msg)
	}
	return m, cmd
}

// startWatch switches to the watch view and polls immediately.
func (m *Model) startWatch(p *models.Pathway) tea.Cmd {
	m.selected = p
	m.status = nil
	m.notice = ""
	m.view = WatchView
	m.topicList.SetItems(topicItems(p.Topics))
	m.topicList.Title = p.Name
	m.pollSeq++
	return m.poll()
}

// stopWatch returns to the list; in-flight ticks are discarded by sequence.
func (m *Model) stopWatch() {
	m.pollSeq++
	m.polling = false
	m.selected = nil
	m.status = nil
	m.notice = ""
	m.view = PathwayListView
}

// applyTopic replaces the updated topic in the selected pathway.
func (m *Model) applyTopic(t models.Topic) {
	if m.selected == nil {
		return
	}
	for i := range m.selected.Topics {
		if m.selected.Topics[i].ID == t.ID {
			m.selected.Topics[i] = t
		}
	}
	m.topicList.SetItems(topicItems(m.selected.Topics))
}

func (m *Model) fetchPathways() tea.Cmd {
	return func() tea.Msg {
		pathways, err := m.client.ListPathways(m.ctx)
		return pathwaysFetchedMsg(pathways, err)
	}
}

func (m *Model) fetchPathway(id string) tea.Cmd {
	return func() tea.Msg {
		pathway, err := m.client.GetPathway(m.ctx, id)
		return pathwayFetchedMsg(pathway, err)
	}
}

func (m *Model) poll() tea.Cmd {
	m.polling = true
	seq, id := m.pollSeq, m.selected.ID
	return func() tea.Msg {
		status, fetched, err := m.poller.Tick(m.ctx, id)
		return statusPolledMsg(seq, status, fetched, err)
	}
}

func (m *Model) scheduleTick(seq int) tea.Cmd {
	return tea.Tick(m.poller.Interval(), func(time.Time) tea.Msg {
		return pollTickMsg(seq)
	})
}

func (m *Model) completeTopic(id int) tea.Cmd {
	return func() tea.Msg {
		topic, err := m.client.CompleteTopic(m.ctx, id)
		return topicCompletedMsg(topic, err)
	}
}

func (m *Model) renderPathwayList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", m.pathwayList.View(), m.notice, helpView)
}

func (m *Model) renderWatch() string {
	var b strings.Builder

	b.WriteString(m.topicList.View())
	b.WriteString("\n\n")

	switch {
	case m.status == nil:
		fmt.Fprintf(&b, "%s checking status...", m.spinner.View())
	default:
		pct := m.status.CompletionPercentage / 100
		source := "cached"
		if m.fetched {
			source = "fetched"
		}
		summary := fmt.Sprintf("%s  %d/%d topics (%s)",
			m.bar.ViewAs(pct), m.status.CompletedTopicsCount, m.status.TotalTopics, source)
		if m.status.Done() {
			summary += "  " + styles.ok.Render("✓ pathway complete")
		}
		if m.polling {
			summary += " " + m.spinner.View()
		}
		b.WriteString(styles.box.Render(summary))
	}

	if m.notice != "" {
		b.WriteString("\n" + m.notice)
	}
	if !m.lastPoll.IsZero() {
		b.WriteString("\n" + styles.help.Render("last checked "+m.lastPoll.Format(time.Kitchen)))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.complete, m.keys.refresh, m.keys.back, m.keys.quit})
	b.WriteString("\n\n" + helpView)
	return b.String()
}

func (m *Model) renderConfirm() string {
	if m.pending == nil {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("Mark '%s' as completed?", m.pending.Name))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s", title, helpView)
}
