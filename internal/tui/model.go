// Package tui is the live countdown view: today's schedule with each entry's
// status and a per-second countdown to the next prayer.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smokyabdulrahman/salahclock/internal/prayer"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	pastStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	currentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	upcomingStyle = lipgloss.NewStyle()

	countdownStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Align(lipgloss.Center)

	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Loader fetches the schedule for another day. It is called when the clock
// passes midnight.
type Loader func(ctx context.Context, date time.Time) (*schedule.Day, error)

// KeyMap holds the view's bindings.
type KeyMap struct {
	Quit  key.Binding
	Retry key.Binding
}

// DefaultKeyMap quits on q, esc or ctrl+c and retries a failed reload on r.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
	}
}

// Options configures a Model.
type Options struct {
	Loader     Loader
	Policy     prayer.Policy
	TimeFormat string // Go layout, e.g. "15:04"
	Now        func() time.Time
}

// Model is the bubbletea model.
type Model struct {
	day        *schedule.Day
	load       Loader
	policy     prayer.Policy
	timeFormat string
	clock      func() time.Time
	keys       KeyMap

	now     time.Time
	loading bool
	err     error
	// failedFor is the date whose reload failed; it is not retried until
	// the user asks or the date changes.
	failedFor time.Time
	width     int
	height    int
	quitting  bool
}

// New builds a Model showing day.
func New(day *schedule.Day, opts Options) Model {
	m := Model{
		day:        day,
		load:       opts.Loader,
		policy:     opts.Policy,
		timeFormat: opts.TimeFormat,
		clock:      opts.Now,
		keys:       DefaultKeyMap(),
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	if m.timeFormat == "" {
		m.timeFormat = "15:04"
	}
	if m.policy == (prayer.Policy{}) {
		m.policy = prayer.DefaultPolicy()
	}
	m.now = m.clock()
	return m
}

// TickMsg is sent once a second.
type TickMsg time.Time

type dayMsg struct {
	day *schedule.Day
	err error
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Retry) && m.err != nil && m.load != nil && !m.loading {
			m.loading = true
			m.failedFor = time.Time{}
			return m, m.reload(m.now)
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case TickMsg:
		m.now = time.Time(msg).In(m.now.Location())
		if m.needsReload() {
			m.loading = true
			return m, tea.Batch(tick(), m.reload(m.now))
		}
		return m, tick()

	case dayMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.failedFor = m.now
			return m, nil
		}
		m.day, m.err, m.failedFor = msg.day, nil, time.Time{}
	}
	return m, nil
}

// needsReload reports whether the day shown is no longer today.
func (m Model) needsReload() bool {
	if m.load == nil || m.loading || m.day == nil {
		return false
	}
	if m.err != nil && !m.failedFor.IsZero() && sameDay(m.failedFor, m.now) {
		return false
	}
	return !sameDay(m.day.Schedule.Date(), m.now)
}

func (m Model) reload(date time.Time) tea.Cmd {
	load := m.load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		day, err := load(ctx, date)
		return dayMsg{day: day, err: err}
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.day == nil {
		return errStyle.Render("No prayer times loaded.") + "\n"
	}

	snap := m.day.At(m.now, m.policy)

	var rows []string
	for _, e := range snap.Classified.Entries() {
		line := fmt.Sprintf("%-8s %8s", e.Name, e.Clock.On(m.now).Format(m.timeFormat))
		if e.Status == prayer.StatusCurrent {
			line += "  now"
		}
		rows = append(rows, styleFor(e.Status).Render(line))
	}

	parts := []string{
		titleStyle.Render(fmt.Sprintf("%s · %s", m.day.Query.Label(), m.now.Format("Mon 2 Jan 2006"))),
		"",
		strings.Join(rows, "\n"),
		"",
	}

	if snap.HasNext {
		cd := prayer.CountdownTo(snap.Next.Clock, m.now)
		label := fmt.Sprintf("%s at %s", snap.Next.Name, snap.Next.At.Format(m.timeFormat))
		if snap.Next.Tomorrow {
			label += " (tomorrow)"
		}
		parts = append(parts, countdownStyle.Render(lipgloss.JoinVertical(lipgloss.Center, label, cd.String())))
	}

	help := m.keys.Quit.Help().Key + " " + m.keys.Quit.Help().Desc
	if m.err != nil {
		parts = append(parts, errStyle.Render("error: "+m.err.Error()))
		if m.load != nil {
			help += " · " + m.keys.Retry.Help().Key + " " + m.keys.Retry.Help().Desc
		}
	}
	parts = append(parts, helpStyle.Render(help))

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content + "\n"
}

func styleFor(s prayer.Status) lipgloss.Style {
	switch s {
	case prayer.StatusPast:
		return pastStyle
	case prayer.StatusCurrent:
		return currentStyle
	default:
		return upcomingStyle
	}
}

// Run shows the countdown until the user quits or ctx is cancelled. The
// ticker belongs to the program and stops with it.
func Run(ctx context.Context, m Model) error {
	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
