package ui

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
	helpStyle  = lipgloss.NewStyle().Faint(true).Italic(true)
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// TUIRenderer shows a live progress bar using bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer.
// Returns an error if the output is not a TTY.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}
	return &TUIRenderer{
		cfg:  cfg,
		done: make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	model := newSolveModel(r.cfg.Label, r.cfg.OnStop)

	var opts []tea.ProgramOption
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	r.program = tea.NewProgram(model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// SetPercent implements Renderer.
func (r *TUIRenderer) SetPercent(pct float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(percentMsg(pct))
	}
}

// Finish implements Renderer.
func (r *TUIRenderer) Finish() {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program != nil {
		program.Send(finishedMsg{})
		<-r.done
	}
}

type percentMsg float64

type finishedMsg struct{}

// solveModel is the bubbletea model for a running solve.
type solveModel struct {
	label   string
	onStop  func()
	spinner spinner.Model
	bar     progress.Model
	percent float64
	start   time.Time
	done    bool
}

func newSolveModel(label string, onStop func()) solveModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return solveModel{
		label:   label,
		onStop:  onStop,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		start:   time.Now(),
	}
}

// Init implements tea.Model.
func (m solveModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m solveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.onStop != nil {
				m.onStop()
			}
			return m, nil
		}
		return m, nil

	case percentMsg:
		if float64(msg) > m.percent {
			m.percent = float64(msg)
		}
		return m, nil

	case finishedMsg:
		m.done = true
		m.percent = 100
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m solveModel) View() string {
	elapsed := time.Since(m.start).Round(time.Second)

	if m.done {
		return fmt.Sprintf("%s %s\n%s\n",
			doneStyle.Render("done"),
			faintStyle.Render(fmt.Sprintf("(%s)", elapsed)),
			m.bar.ViewAs(1.0))
	}

	return fmt.Sprintf("%s %s\n%s %.1f%% %s\n%s\n",
		m.spinner.View(),
		labelStyle.Render(m.label),
		m.bar.ViewAs(m.percent/100),
		m.percent,
		faintStyle.Render(fmt.Sprintf("(%s)", elapsed)),
		helpStyle.Render("press q to stop"))
}
