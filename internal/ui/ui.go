package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/faintpulse/earmark/internal/catalog"
	"github.com/faintpulse/earmark/internal/models"
	"github.com/faintpulse/earmark/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FeatureListView ViewState = iota
	LabelView
	DoneView
)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	store       *catalog.Store
	market      string
	width       int
	height      int
	featureList list.Model
	feature     string
	track       *models.Track
	rated       int
	err         error
	help        help.Model
	keys        keyMap
}

type featuresLoadedMsg struct {
	items []featureItem
	err   error
}

type trackLoadedMsg struct {
	track *models.Track
	err   error
}

// NewModel creates a new TUI model over the catalog.
func NewModel(ctx context.Context, store *catalog.Store, market string) *Model {
	return &Model{
		ctx:    ctx,
		view:   FeatureListView,
		store:  store,
		market: market,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by loading the declared features.
func (m *Model) Init() tea.Cmd {
	return m.loadFeatures()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.featureList.Width() == 0 {
			m.featureList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case FeatureListView:
			return m.handleFeatureListKeys(msg)
		case LabelView:
			return m.handleLabelKeys(msg)
		case DoneView:
			return m.handleDoneKeys(msg)
		}

	case featuresLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.items))
		for i, item := range msg.items {
			items[i] = item
		}
		m.featureList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.featureList.Title = "Features"
		m.featureList.SetSize(m.width-4, m.height-8)
		return m, nil

	case trackLoadedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, shared.ErrNoMoreTracks) {
				m.track = nil
				m.view = DoneView
				return m, nil
			}
			m.err = msg.err
			return m, tea.Quit
		}
		m.track = msg.track
		m.view = LabelView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case FeatureListView:
		return m.renderFeatureList()
	case LabelView:
		return m.renderLabel()
	case DoneView:
		return m.renderDone()
	default:
		return ""
	}
}

func (m *Model) handleFeatureListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.featureList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(featureItem); ok {
				m.feature = item.name
				m.rated = 0
				return m, m.loadNextTrack()
			}
		}
	}

	var cmd tea.Cmd
	m.featureList, cmd = m.featureList.Update(msg)
	return m, cmd
}

func (m *Model) handleLabelKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = FeatureListView
		return m, m.loadFeatures()
	case "y":
		return m, m.rate(1)
	case "n":
		return m, m.rate(0)
	case "s":
		// Skipping leaves the track unlabeled; it will come around again
		// next session.
		return m, m.loadNextTrack()
	}
	return m, nil
}

func (m *Model) handleDoneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.view = FeatureListView
		return m, m.loadFeatures()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == FeatureListView {
		m.featureList, cmd = m.featureList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadFeatures() tea.Cmd {
	return func() tea.Msg {
		features, err := m.store.Features()
		if err != nil {
			return featuresLoadedMsg{err: err}
		}

		items := make([]featureItem, 0, len(features))
		for _, name := range features {
			count, err := m.store.LabelCount(name)
			if err != nil {
				return featuresLoadedMsg{err: err}
			}
			items = append(items, featureItem{name: name, labels: count})
		}
		return featuresLoadedMsg{items: items}
	}
}

func (m *Model) loadNextTrack() tea.Cmd {
	return func() tea.Msg {
		track, err := m.store.NextUntrained(m.feature, m.market)
		return trackLoadedMsg{track: track, err: err}
	}
}

func (m *Model) rate(rating byte) tea.Cmd {
	track := m.track
	return func() tea.Msg {
		if track == nil {
			return trackLoadedMsg{err: shared.ErrNoMoreTracks}
		}
		if err := m.store.PutLabel(m.feature, track.ID, rating); err != nil {
			return trackLoadedMsg{err: err}
		}
		m.rated++
		next, err := m.store.NextUntrained(m.feature, m.market)
		return trackLoadedMsg{track: next, err: err}
	}
}

func (m *Model) renderFeatureList() string {
	if len(m.featureList.Items()) == 0 {
		return styles.warn.Render("No features declared yet.\n\nDeclare one with 'earmark features add <name>', then press q and relaunch.")
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.featureList.View(), helpView)
}

func (m *Model) renderLabel() string {
	title := styles.title.Render(fmt.Sprintf("Labeling '%s'", m.feature))

	var card strings.Builder
	card.WriteString(styles.ok.Render(m.track.Name))
	card.WriteString("\n")
	card.WriteString(styles.artist.Render(m.track.ArtistNames()))
	if m.track.URI != "" {
		card.WriteString(fmt.Sprintf("\n\n%s", styles.help.Render(m.track.URI)))
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.skip, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, card.String(), helpView)
}

func (m *Model) renderDone() string {
	title := styles.ok.Render(fmt.Sprintf("✓ No more tracks to label for '%s'", m.feature))
	info := fmt.Sprintf("\nLabeled %d tracks this session.\n", m.rated)

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
