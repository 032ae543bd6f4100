package tui

import (
	"fmt"
	"strings"
	"time"

	"bingo-service/internal/bingo"
	"bingo-service/internal/catalog"
	"bingo-service/internal/models"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	columns   = 4
	cellWidth = 22
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	cellStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Height(2).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3C3C3C"))

	cursorStyle   = cellStyle.BorderForeground(lipgloss.Color("#FFFFFF"))
	validStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00C853")).Bold(true)
	wildcardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD600")).Bold(true)
	invalidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF1744"))

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	noticeStyle = map[bingo.Severity]lipgloss.Style{
		bingo.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#40C4FF")),
		bingo.SeveritySuccess: validStyle,
		bingo.SeverityWarning: wildcardStyle,
		bingo.SeverityError:   invalidStyle,
	}
)

// tickMsg carries the generation of the game that scheduled it so a tick
// from a replaced game is dropped.
type tickMsg struct {
	generation int
}

type notices struct {
	latest []bingo.Notice
}

func (n *notices) Notify(notice bingo.Notice) {
	n.latest = append(n.latest, notice)
}

type model struct {
	catalog    *catalog.Catalog
	opts       bingo.Options
	rng        bingo.RandomSource
	initial    *models.Card
	session    *bingo.Session
	generation int
	cursor     int
	notices    *notices
	help       help.Model
	err        error
	width      int
}

// NewModel plays initial first, or a random card when it is nil.
func NewModel(cards *catalog.Catalog, opts bingo.Options, rng bingo.RandomSource, initial *models.Card) model {
	return model{
		catalog: cards,
		initial: initial,
		opts:    opts,
		rng:     rng,
		notices: &notices{},
		help:    help.New(),
	}
}

func (m model) Init() tea.Cmd {
	card := m.initial
	return func() tea.Msg { return startMsg{card: card} }
}

type startMsg struct {
	card *models.Card
}

func (m model) tick() tea.Cmd {
	gen := m.generation
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{generation: gen}
	})
}

// start replaces the session. The previous one is dropped as a whole.
func (m model) start(card *models.Card) (model, tea.Cmd) {
	if card == nil {
		picked, err := m.catalog.Random()
		if err != nil {
			m.err = err
			return m, nil
		}
		card = picked
	}

	m.notices.latest = nil
	s := bingo.NewSession(m.opts, m.rng, m.notices)
	if err := s.StartGame(card); err != nil {
		m.err = err
		return m, nil
	}

	m.err = nil
	m.session = s
	m.generation++
	m.cursor = 0
	if m.opts.Timed {
		return m, m.tick()
	}
	return m, nil
}

func (m model) playing() bool {
	return m.session != nil && m.session.Phase() == bingo.PhasePlaying
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		return m.start(msg.card)

	case tickMsg:
		if msg.generation != m.generation || !m.playing() {
			return m, nil
		}
		m.session.Tick()
		if m.playing() {
			return m, m.tick()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Same):
		var card *models.Card
		if m.session != nil {
			card = m.session.Card()
		}
		return m.start(card)

	case key.Matches(msg, keys.Random):
		var current *models.Card
		if m.session != nil {
			current = m.session.Card()
		}
		card, err := m.catalog.RandomOther(current)
		if err != nil {
			m.err = err
			return m, nil
		}
		return m.start(card)
	}

	if !m.playing() {
		return m, nil
	}
	m.notices.latest = nil

	total := len(m.session.Card().Categories)
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor-columns >= 0 {
			m.cursor -= columns
		}
	case key.Matches(msg, keys.Down):
		if m.cursor+columns < total {
			m.cursor += columns
		}
	case key.Matches(msg, keys.Left):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Right):
		if m.cursor+1 < total {
			m.cursor++
		}
	case key.Matches(msg, keys.Select):
		_, m.err = m.session.SelectCategory(m.cursor)
	case key.Matches(msg, keys.Wildcard):
		_, m.err = m.session.UseWildcard()
	case key.Matches(msg, keys.Skip):
		m.err = m.session.Skip()
	}
	return m, nil
}

func (m model) View() string {
	if m.session == nil {
		if m.err != nil {
			return fmt.Sprintf("\n  Error: %v\n\n  Press q to quit.\n", m.err)
		}
		return "\n  Loading cards...\n"
	}

	snap := m.session.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render(snap.CardName))
	b.WriteString("\n\n")
	b.WriteString(m.renderBoard(snap))
	b.WriteString("\n")
	b.WriteString(m.renderStatus(snap))
	b.WriteString("\n")

	for _, n := range m.notices.latest {
		style := noticeStyle[n.Severity]
		b.WriteString(style.Render(n.Title))
		if n.Description != "" {
			b.WriteString(" " + n.Description)
		}
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(invalidStyle.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.help.View(keys))
	return "\n" + b.String() + "\n"
}

func (m model) renderBoard(snap bingo.Snapshot) string {
	valid := make(map[int]bool, len(snap.ValidSelections))
	for _, id := range snap.ValidSelections {
		valid[id] = true
	}
	wild := make(map[int]bool, len(snap.WildcardMatches))
	for _, id := range snap.WildcardMatches {
		wild[id] = true
	}

	var rows []string
	var row []string
	for i, category := range snap.Categories {
		label := category.Name
		switch {
		case wild[i]:
			label = wildcardStyle.Render("★ " + label)
		case valid[i]:
			label = validStyle.Render("✓ " + label)
		case snap.LastInvalidSelection != nil && *snap.LastInvalidSelection == i:
			label = invalidStyle.Render("✗ " + label)
		}

		style := cellStyle
		if i == m.cursor && snap.Phase == bingo.PhasePlaying {
			style = cursorStyle
		}
		row = append(row, style.Render(label))

		if len(row) == columns {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m model) renderStatus(snap bingo.Snapshot) string {
	if snap.Phase == bingo.PhaseEnd {
		result := "Game over"
		if snap.Outcome == bingo.OutcomeWin {
			result = "Bingo!"
		}
		return playerStyle.Render(result) + " " +
			statusStyle.Render(fmt.Sprintf("%d/%d categories, %d players used", snap.Matched(), len(snap.Categories), len(snap.UsedPlayerIDs)))
	}

	parts := []string{fmt.Sprintf("players used %d/%d", len(snap.UsedPlayerIDs), snap.TotalPlayers)}
	if snap.MaxAvailablePlayers > 0 {
		parts = append(parts, fmt.Sprintf("max %d", snap.MaxAvailablePlayers))
	}
	if snap.Timed {
		parts = append(parts, fmt.Sprintf("%ds left", snap.TimeRemaining))
	}
	if snap.HasWildcard {
		parts = append(parts, "wildcard ready")
	}
	if snap.SkipPenaltyActive {
		parts = append(parts, "skip penalty armed")
	}

	name := ""
	if snap.CurrentPlayer != nil {
		name = snap.CurrentPlayer.Name
	}
	return playerStyle.Render(name) + " " + statusStyle.Render(strings.Join(parts, " · "))
}

// Run plays until the user quits. An empty cardName starts on a random card.
func Run(cards *catalog.Catalog, opts bingo.Options, rng bingo.RandomSource, cardName string) error {
	var initial *models.Card
	if cardName != "" {
		card, err := cards.Get(cardName)
		if err != nil {
			return err
		}
		initial = card
	}

	p := tea.NewProgram(NewModel(cards, opts, rng, initial), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
