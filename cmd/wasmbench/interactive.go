package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bench/backend"
	"github.com/wippyai/wasm-bench/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	tierStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectBackend modelState = iota
	stateSelectMode
	stateInputArg
	stateShowResult
)

type interactiveModel struct {
	err      error
	rt       *runtime.Runtime
	logger   *zap.Logger
	opts     options
	wasm     []byte
	backends []backend.Backend
	modes    []runtime.Mode
	history  []runtime.Outcome
	input    textinput.Model
	last     runtime.Outcome
	cursor   int
	backend  backend.Backend
	mode     runtime.Mode
	state    modelState
	loaded   bool
}

type loadedMsg struct {
	err      error
	rt       *runtime.Runtime
	logger   *zap.Logger
	wasm     []byte
	backends []backend.Backend
}

type runResultMsg struct {
	err error
	out runtime.Outcome
}

func newInteractiveModel(o options) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "n: "
	ti.Placeholder = "u32"
	ti.Width = 20
	ti.SetValue(strconv.FormatUint(uint64(o.arg), 10))

	return &interactiveModel{
		opts:  o,
		modes: runtime.Modes(),
		input: ti,
		state: stateSelectBackend,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	data, err := os.ReadFile(m.opts.wasmFile)
	if err != nil {
		return loadedMsg{err: err}
	}

	// Logs would corrupt the alternate screen.
	o := m.opts
	o.verbose = false
	rt, backends, logger, err := setup(context.Background(), o, nil)
	if err != nil {
		return loadedMsg{err: err}
	}
	if len(backends) == 0 {
		rt.Close(context.Background())
		return loadedMsg{err: fmt.Errorf("no selected backend is available in this build")}
	}
	return loadedMsg{rt: rt, logger: logger, wasm: data, backends: backends}
}

func (m *interactiveModel) close() {
	if m.rt != nil {
		m.rt.Close(context.Background())
		m.rt = nil
	}
	if m.logger != nil {
		_ = m.logger.Sync()
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.close()
			return m, tea.Quit

		case "q":
			if m.state != stateInputArg {
				m.close()
				return m, tea.Quit
			}

		case "up", "k":
			if m.state != stateInputArg && m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < m.listLen()-1 {
				m.cursor++
			}

		case "enter":
			switch m.state {
			case stateSelectBackend:
				if len(m.backends) == 0 {
					return m, nil
				}
				m.backend = m.backends[m.cursor]
				m.cursor = 0
				m.state = stateSelectMode

			case stateSelectMode:
				m.mode = m.modes[m.cursor]
				if m.mode == runtime.ModeAOTCompile {
					return m, m.runSelected
				}
				m.input.Focus()
				m.state = stateInputArg
				return m, textinput.Blink

			case stateInputArg:
				return m, m.runSelected

			case stateShowResult:
				m.reset()
			}
			return m, nil

		case "esc":
			switch m.state {
			case stateSelectMode:
				m.state = stateSelectBackend
				m.cursor = 0
			case stateInputArg:
				m.input.Blur()
				m.state = stateSelectMode
			case stateShowResult:
				m.reset()
			}
			return m, nil
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.logger = msg.logger
		m.wasm = msg.wasm
		m.backends = msg.backends
		m.loaded = true
		return m, nil

	case runResultMsg:
		m.err = msg.err
		m.last = msg.out
		if msg.err == nil {
			m.history = append(m.history, msg.out)
		}
		m.input.Blur()
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateInputArg {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) reset() {
	m.state = stateSelectBackend
	m.cursor = 0
	m.err = nil
}

func (m *interactiveModel) listLen() int {
	switch m.state {
	case stateSelectBackend:
		return len(m.backends)
	case stateSelectMode:
		return len(m.modes)
	}
	return 0
}

// keyFor returns the last key produced for the selected backend, so aot_e
// can follow aot_c in the same session.
func (m *interactiveModel) keyFor(b backend.Backend) runtime.Input {
	in := runtime.Input{Wasm: m.wasm}
	for i := len(m.history) - 1; i >= 0; i-- {
		if h := m.history[i]; h.Backend == b && h.Key != "" {
			in.Key = h.Key
			break
		}
	}
	return in
}

func (m *interactiveModel) runSelected() tea.Msg {
	in := m.keyFor(m.backend)
	if m.mode != runtime.ModeAOTCompile {
		v, err := strconv.ParseUint(strings.TrimSpace(m.input.Value()), 10, 32)
		if err != nil {
			return runResultMsg{err: fmt.Errorf("argument: %w", err)}
		}
		in.Arg = uint32(v)
	}
	if m.mode == runtime.ModeAOTExecute && in.Key == "" {
		return runResultMsg{err: fmt.Errorf("no key for %s yet, run aot_c first", m.backend)}
	}

	out, err := m.rt.Runner(m.backend).Run(context.Background(), m.mode, in)
	return runResultMsg{out: out, err: err}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Loading module..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("WASM Bench"))
	b.WriteString(" ")
	b.WriteString(m.opts.wasmFile)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectBackend:
		b.WriteString("Select a backend:\n\n")
		for i, be := range m.backends {
			line := fmt.Sprintf("%-20s %s", be, tierStyle.Render(string(be.Tier())))
			m.writeItem(&b, i, line)
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter choose • q quit"))

	case stateSelectMode:
		b.WriteString(fmt.Sprintf("Backend %s, select a mode:\n\n", nameStyle.Render(m.backend.String())))
		for i, mode := range m.modes {
			m.writeItem(&b, i, string(mode))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter run • esc back"))

	case stateInputArg:
		b.WriteString(fmt.Sprintf("%s %s\n\n", nameStyle.Render(m.backend.String()), string(m.mode)))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter run • esc back"))

	case stateShowResult:
		b.WriteString(fmt.Sprintf("%s %s:\n\n", nameStyle.Render(m.backend.String()), string(m.mode)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(formatOutcome(m.last)))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) writeItem(b *strings.Builder, i int, line string) {
	if i == m.cursor {
		b.WriteString(selectedStyle.Render("> " + line))
	} else {
		b.WriteString("  " + line)
	}
	b.WriteString("\n")
}

func runInteractive(o options) error {
	p := tea.NewProgram(newInteractiveModel(o), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
