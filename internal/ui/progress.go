package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TheBluWiz/disk-burnin/internal/burnin"
)

const (
	padding  = 2
	maxWidth = 80
)

var (
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Render
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Render
)

// runComplete indica que la ejecución ha terminado
type runComplete struct{}

// tickMsg dispara el sondeo periódico de progreso
type tickMsg struct{}

// runResult transporta el resultado final desde la goroutine de la quema
type runResult struct {
	result *burnin.Result
	err    error
}

// runner ejecuta la quema en una goroutine y publica snapshots de progreso
type runner struct {
	progressChan chan burnin.Snapshot
	resultChan   chan runResult
}

func newRunner() *runner {
	return &runner{
		progressChan: make(chan burnin.Snapshot, 16),
		resultChan:   make(chan runResult, 1),
	}
}

func (r *runner) run(ctx context.Context, cfg burnin.Config) {
	cfg.Notify = func(s burnin.Snapshot) {
		select {
		case r.progressChan <- s:
		default:
		}
	}
	result, err := burnin.Run(ctx, cfg)
	r.resultChan <- runResult{result: result, err: err}
}

// model es la barra de progreso de la quema
type model struct {
	progress progress.Model
	snapshot burnin.Snapshot
	complete bool
	cancel   context.CancelFunc
	runner   *runner
	result   *burnin.Result
	err      error
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.checkProgress(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.complete {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			// Cancelación cooperativa: se deja de despachar y la quema aborta
			m.cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - padding*2 - 4
		if m.progress.Width > maxWidth {
			m.progress.Width = maxWidth
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.checkProgress(), tick())

	case burnin.Snapshot:
		m.snapshot = msg
		cmd := m.progress.SetPercent(msg.Percent())
		return m, cmd

	case runComplete:
		m.complete = true
		return m, tea.Sequence(m.progress.SetPercent(1.0), tea.Quit)

	// FrameMsg llega cuando la barra quiere animarse
	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	default:
		return m, nil
	}
}

// checkProgress sondea primero el resultado final y después los snapshots
func (m *model) checkProgress() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-m.runner.resultChan:
			m.result = result.result
			m.err = result.err
			return runComplete{}
		default:
		}

		select {
		case snap := <-m.runner.progressChan:
			return snap
		default:
			return nil
		}
	}
}

func (m *model) View() string {
	pad := strings.Repeat(" ", padding)

	var status string
	if m.complete && m.result != nil {
		status = fmt.Sprintf("Veredicto: %s | %v", m.result.Verdict(), m.result.Elapsed)
	} else {
		status = fmt.Sprintf("Fase: %s | %d/%d archivos",
			m.snapshot.Phase, m.snapshot.Completed, m.snapshot.Total)
		if m.snapshot.Failed > 0 {
			status += " | " + failStyle(fmt.Sprintf("%d fallos", m.snapshot.Failed))
		}
	}

	return "\n" +
		pad + "Quemado de disco en progreso...\n\n" +
		pad + m.progress.View() + "\n\n" +
		pad + helpStyle(status) + "\n" +
		pad + helpStyle("Presiona q o ctrl+c para interrumpir") + "\n"
}

// Run ejecuta la quema con una barra de progreso en vivo y devuelve su resultado
func Run(ctx context.Context, cfg burnin.Config) (*burnin.Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := newRunner()
	go r.run(runCtx, cfg)

	m := &model{
		progress: progress.New(progress.WithDefaultGradient()),
		cancel:   cancel,
		runner:   r,
	}

	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		cancel()
		// La quema sigue siendo la fuente de verdad aunque la UI falle
		result := <-r.resultChan
		if result.err != nil {
			return result.result, result.err
		}
		return result.result, fmt.Errorf("error ejecutando UI: %w", err)
	}

	final := finalModel.(*model)
	if final.result == nil {
		// La UI terminó antes que la quema (tecla tras cancelar): esperar el cierre
		result := <-r.resultChan
		return result.result, result.err
	}
	return final.result, final.err
}
