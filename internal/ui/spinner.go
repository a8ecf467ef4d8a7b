package ui

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type workDoneMsg struct {
	err error
}

// SpinnerModel shows a spinner next to Label until its work returns.
// Ctrl+C cancels the work's context; the model quits once the work has
// noticed.
type SpinnerModel struct {
	Spinner spinner.Model
	Label   string
	Err     error

	ctx    context.Context
	cancel context.CancelFunc
	work   func(context.Context) error
	done   bool
}

// NewSpinnerModel creates a model that runs work under a child of ctx
func NewSpinnerModel(ctx context.Context, label string, work func(context.Context) error) SpinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	ctx, cancel := context.WithCancel(ctx)
	return SpinnerModel{
		Spinner: s,
		Label:   label,
		ctx:     ctx,
		cancel:  cancel,
		work:    work,
	}
}

// Init implements tea.Model
func (m SpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.runWork, m.Spinner.Tick)
}

func (m SpinnerModel) runWork() tea.Msg {
	return workDoneMsg{err: m.work(m.ctx)}
}

// Update implements tea.Model
func (m SpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.done = true
		m.Err = msg.err
		m.cancel()
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancel()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m SpinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.Spinner.View() + " " + MutedStyle.Render(m.Label) + "\n"
}

// RunWithSpinner runs work while a spinner labelled label animates on
// stderr. Without a terminal it prints nothing and just calls work.
func RunWithSpinner(ctx context.Context, label string, work func(context.Context) error) error {
	if !IsTerminal() {
		return work(ctx)
	}

	model := NewSpinnerModel(ctx, label, work)
	defer model.cancel()

	final, err := tea.NewProgram(model, tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return err
	}
	return final.(SpinnerModel).Err
}
