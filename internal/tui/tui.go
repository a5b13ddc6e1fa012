// Package tui provides a Bubble Tea terminal user interface for traktor-cues.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/traktor-cues/internal/config"
	"github.com/handiism/traktor-cues/internal/model"
	"github.com/handiism/traktor-cues/internal/session"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateComputing
	StateReview
	StateWriting
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   session.ProgressLevel
}

// logBuffer collects progress events from the manager until the next tick.
type logBuffer struct {
	mu      sync.Mutex
	pending []LogEntry
}

func (l *logBuffer) add(event session.ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, LogEntry{Message: event.Message, Level: event.Level})
}

func (l *logBuffer) drain() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.pending
	l.pending = nil
	return out
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	buffer    *logBuffer
	outcomes  []*session.Outcome
	err       error

	// Session context
	ctx    context.Context
	cancel context.CancelFunc

	manager *session.Manager
	files   []string

	// Progress
	processed int32
	total     int32

	// Options
	overwrite bool
	analyze   bool
	verbose   bool

	width  int
	height int
}

// NewModel creates a new TUI model. A nil settings uses the defaults.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "Dreams.mp3, Intro.m4a  or  playlist:Warmup  or  dir:/:Deep House/:"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		buffer:    &logBuffer{},
		ctx:       ctx,
		cancel:    cancel,
		overwrite: settings.Overwrite,
		analyze:   settings.AnalyzeAudio,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ComputeDoneMsg is sent when cue positions have been computed.
	ComputeDoneMsg struct {
		Files    []string
		Outcomes []*session.Outcome
		Err      error
	}

	// WriteDoneMsg is sent when cues have been written.
	WriteDoneMsg struct {
		Outcomes []*session.Outcome
		Err      error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			m.closeManager()
			return m, tea.Quit

		case "esc":
			switch m.state {
			case StateInput:
				return m, tea.Quit
			case StateReview:
				m.state = StateInput
				m.textInput.Focus()
				m.closeManager()
			case StateComputing, StateWriting:
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateComputing
				m.logs = nil
				m.processed, m.total = 0, 0
				m.manager = m.newManager()
				return m, tea.Batch(m.compute(), m.spinner.Tick, m.tickProgress())
			}

		case "ctrl+o":
			if m.state == StateInput {
				m.overwrite = !m.overwrite
			}

		case "ctrl+r":
			if m.state == StateInput {
				m.analyze = !m.analyze
			}

		case "ctrl+l":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "w":
			if m.state == StateReview && m.manager != nil {
				m.state = StateWriting
				return m, tea.Batch(m.write(), m.spinner.Tick, m.tickProgress())
			}

		case "q":
			if m.state == StateReview || m.state == StateComplete || m.state == StateError {
				m.closeManager()
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a new batch
				m.closeManager()
				m.state = StateInput
				m.logs = nil
				m.outcomes = nil
				m.files = nil
				m.err = nil
				m.processed = 0
				m.total = 0
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ComputeDoneMsg:
		m.collectLogs()
		if m.state != StateComputing {
			// Cancelled while computing.
			m.closeManager()
			break
		}
		if msg.Err != nil {
			m.closeManager()
			m.state = StateError
			m.err = msg.Err
			break
		}
		m.files = msg.Files
		m.outcomes = msg.Outcomes
		m.state = StateReview

	case WriteDoneMsg:
		m.collectLogs()
		if msg.Err != nil && m.ctx.Err() == nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.outcomes = msg.Outcomes
			m.state = StateComplete
		}

	case TickMsg:
		m.collectLogs()
		if m.manager != nil && (m.state == StateComputing || m.state == StateWriting) {
			m.processed, m.total = m.manager.GetProgress()

			var percent float64
			if m.total > 0 {
				percent = float64(m.processed) / float64(m.total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent))
		}
		if m.state == StateComputing || m.state == StateWriting {
			cmds = append(cmds, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// collectLogs moves buffered progress events into the visible log.
func (m *Model) collectLogs() {
	for _, entry := range m.buffer.drain() {
		// Filter verbose messages if not in verbose mode
		if entry.Level == session.LevelVerbose && !m.verbose {
			continue
		}
		m.logs = append(m.logs, entry)
	}
	// Keep only last 10 logs
	if len(m.logs) > 10 {
		m.logs = m.logs[len(m.logs)-10:]
	}
}

func (m *Model) closeManager() {
	if m.manager != nil {
		m.manager.Close()
		m.manager = nil
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🎛 Traktor Cues"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Place Beat, Breakdown, Groove and End hotcues"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateComputing:
		b.WriteString(m.viewWorking("Computing cue positions..."))
	case StateReview:
		b.WriteString(m.viewReview())
	case StateWriting:
		b.WriteString(m.viewWorking("Writing cues..."))
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Tracks to process:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Overwrite occupied slots (ctrl+o)\n", checkbox(m.overwrite)))
	b.WriteString(fmt.Sprintf("  %s Analyze audio files (ctrl+r)\n", checkbox(m.analyze)))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (ctrl+l)\n", checkbox(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Collection: %s", m.settings.NMLPath)))
	b.WriteString("\n")

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewWorking(title string) string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(title))
	b.WriteString("\n\n")

	var percent float64
	if m.total > 0 {
		percent = float64(m.processed) / float64(m.total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Tracks: %d/%d", m.processed, m.total)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewReview() string {
	var b strings.Builder

	b.WriteString(successStyle.Render(fmt.Sprintf("Computed %d track(s):", len(m.outcomes))))
	b.WriteString("\n\n")

	for _, out := range m.outcomes {
		b.WriteString(trackStyle.Render("♪ " + out.Filename))
		b.WriteString("\n")
		if out.Failed() {
			b.WriteString(errorStyle.Render("    ✗ " + out.Reason()))
			b.WriteString("\n")
			continue
		}
		for _, p := range out.Positions.Positions() {
			line := fmt.Sprintf("    %-9s %s", p.Name, model.FormatMs(p.StartMs))
			if p.LengthMs > 0 {
				line += fmt.Sprintf("  [loop %.1fs]", p.LengthMs/1000)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		for _, f := range out.Positions.Flags {
			b.WriteString(warningStyle.Render("    ! " + f.Message))
			b.WriteString("\n")
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("    %d to write, provenance %s", len(out.Planned), out.Positions.Provenance)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	written, skipped, failed := 0, 0, 0
	backup := ""
	for _, out := range m.outcomes {
		if out.Failed() {
			failed++
			continue
		}
		if out.Result != nil {
			written += len(out.Result.Written)
			skipped += len(out.Result.Skipped)
			if out.Result.BackupPath != "" {
				backup = out.Result.BackupPath
			}
		}
	}

	summary := fmt.Sprintf(
		"✨ Cues Written!\n\n"+
			"Tracks: %d\n"+
			"Written: %d\n"+
			"Skipped: %d\n"+
			"Failed: %d",
		len(m.outcomes), written, skipped, failed,
	)
	if backup != "" {
		summary += "\nLast backup: " + backup
	}
	b.WriteString(boxStyle.Render(summary))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case session.LevelError:
			style = errorStyle
			prefix = "✗"
		case session.LevelWarning:
			style = warningStyle
			prefix = "!"
		case session.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case session.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: compute • ctrl+o: overwrite • ctrl+r: analyze • ctrl+l: verbose • esc: quit"
	case StateComputing, StateWriting:
		return "esc: cancel"
	case StateReview:
		return "w: write cues • esc: back • q: quit"
	case StateComplete, StateError:
		return "r: new batch • q: quit"
	}
	return ""
}

// parseSource turns the input line into a session source.
//
//	Dreams.mp3, Intro.m4a   files
//	playlist:Warmup         a playlist
//	dir:/:Deep House/:      every track in a directory
func parseSource(input string) session.Source {
	input = strings.TrimSpace(input)
	switch {
	case strings.HasPrefix(input, "playlist:"):
		return session.Source{Playlist: strings.TrimSpace(strings.TrimPrefix(input, "playlist:"))}
	case strings.HasPrefix(input, "dir:"):
		return session.Source{Dir: strings.TrimSpace(strings.TrimPrefix(input, "dir:"))}
	}

	var src session.Source
	for _, part := range strings.Split(input, ",") {
		if name := strings.TrimSpace(part); name != "" {
			src.Files = append(src.Files, name)
		}
	}
	return src
}

// newManager creates a manager with the current options. Progress events
// go to the log buffer.
func (m *Model) newManager() *session.Manager {
	settings := *m.settings
	settings.Overwrite = m.overwrite
	settings.AnalyzeAudio = m.analyze

	manager := session.NewManager(&settings, m.buffer.add)
	if err := manager.EnableCache(settings.AnalysisCachePath); err != nil {
		m.buffer.add(session.ProgressEvent{Message: fmt.Sprintf("Analysis cache unavailable: %v", err), Level: session.LevelWarning})
	}
	return manager
}

// compute runs a dry run over the requested tracks. The manager is closed
// by Update when the run fails.
func (m *Model) compute() tea.Cmd {
	src := parseSource(m.textInput.Value())
	manager := m.manager
	ctx := m.ctx

	return func() tea.Msg {
		files, err := manager.Resolve(src)
		if err != nil {
			return ComputeDoneMsg{Err: err}
		}
		if len(files) == 0 {
			return ComputeDoneMsg{Err: fmt.Errorf("no tracks to process")}
		}

		outcomes, err := manager.ProcessIn(ctx, files, src.Dir, true)
		if err != nil {
			return ComputeDoneMsg{Err: err}
		}
		return ComputeDoneMsg{Files: files, Outcomes: outcomes}
	}
}

// write runs the reviewed batch for real.
func (m *Model) write() tea.Cmd {
	manager := m.manager
	files := m.files
	dir := parseSource(m.textInput.Value()).Dir
	ctx := m.ctx

	return func() tea.Msg {
		outcomes, err := manager.ProcessIn(ctx, files, dir, false)
		return WriteDoneMsg{Outcomes: outcomes, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
