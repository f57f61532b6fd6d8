package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/casefile-games/casefile/internal/turn"
	"github.com/casefile-games/casefile/pkg/state"
)

const (
	GameTitle       = "CASEFILE: THE LAST TRAIN"
	PlaceHolderText = "What do you do?"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	controller   *turn.Controller
	gs           state.GameState
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool
	started      bool

	// Pending player action shown while the reply is in flight
	pendingAction string

	// Transient memory-flash banner
	memoryFlash bool

	// Notebook display flag (display-only, not part of game state)
	showNotebook bool

	// Quit confirmation state
	showQuitModal bool

	// One-line status shown under the input, e.g. after /copy
	statusLine string

	// Progress bar state
	progressTick int
}

type initDoneMsg struct {
	gs     state.GameState
	memory bool
}

type turnDoneMsg struct {
	gs     state.GameState
	memory bool
	err    error
}

type flashExpiredMsg struct{}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	memoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")). // violet
			Italic(true)

	memoryBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(controller *turn.Controller) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		controller:   controller,
		gs:           controller.State(),
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		loading:      true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.startGame(), progressTick(), textarea.Blink)
}

// startGame runs the initialization turn before any input is accepted.
func (m ConsoleUI) startGame() tea.Cmd {
	return func() tea.Msg {
		gs := m.controller.Start(context.Background())
		return initDoneMsg{gs: gs, memory: m.controller.MemoryFlashActive()}
	}
}

func (m ConsoleUI) sendAction(action string) tea.Cmd {
	return func() tea.Msg {
		gs, err := m.controller.SubmitAction(context.Background(), action)
		return turnDoneMsg{gs: gs, memory: m.controller.MemoryFlashActive(), err: err}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.showNotebook {
				m.showNotebook = false
				return m, nil
			}
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			return m.submit(input)
		}

	case initDoneMsg:
		m.loading = false
		m.started = true
		m.gs = msg.gs
		m.memoryFlash = msg.memory
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		if msg.memory {
			return m, flashExpiry()
		}

	case turnDoneMsg:
		if errors.Is(msg.err, turn.ErrTurnInFlight) {
			// Gate raced; the submission was a no-op.
			return m, nil
		}
		m.loading = false
		m.pendingAction = ""
		m.gs = msg.gs
		m.memoryFlash = msg.memory
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		if msg.memory {
			return m, flashExpiry()
		}

	case flashExpiredMsg:
		m.memoryFlash = m.controller.MemoryFlashActive()
		if m.memoryFlash {
			return m, flashExpiry()
		}
		m.writeChatContent()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m *ConsoleUI) submit(action string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()
	m.statusLine = ""
	m.loading = true
	m.progressTick = 0
	m.pendingAction = action
	m.writeChatContent()
	return *m, tea.Batch(m.sendAction(action), progressTick())
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()
	m.statusLine = ""

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /notebook - Open the detective's notebook (Esc closes)
• /look, /who, /exits - Quick actions
• /copy - Copy the transcript to the clipboard
• /help - Show this help
• Ctrl+C - Quit

How to play:
• Type your actions and press Enter
• The GM narrates and the notebook fills with clues
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/notebook":
		m.showNotebook = true

	case "/copy":
		if err := clipboard.WriteAll(m.transcript()); err != nil {
			m.statusLine = errorStyle.Render("Could not copy transcript: " + err.Error())
		} else {
			m.statusLine = promptStyle.Render("Transcript copied to clipboard.")
		}

	case "/look":
		return m.submit(turn.QuickActions[0])
	case "/who":
		return m.submit(turn.QuickActions[1])
	case "/exits":
		return m.submit(turn.QuickActions[2])

	case "/quit":
		m.showQuitModal = true
	}

	return m, nil
}

// transcript renders the narrative log as plain text for the clipboard.
func (m ConsoleUI) transcript() string {
	var out strings.Builder
	out.WriteString(GameTitle + "\n\n")
	for _, entry := range m.gs.NarrativeHistory {
		out.WriteString(fmt.Sprintf("%s: %s\n\n", entry.Speaker, entry.Text))
	}
	return out.String()
}

// writeChatContent builds the chat content from the narrative history
// for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(GameTitle) + "\n\n")
	if m.memoryFlash {
		content.WriteString(memoryBannerStyle.Render("A MEMORY SURFACES") + "\n\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, entry := range m.gs.NarrativeHistory {
		content.WriteString(formatEntry(entry, chatWidth) + "\n\n")
	}

	if m.pendingAction != "" {
		content.WriteString(userStyle.Render(state.SpeakerPlayer+": ") + wordwrap.String(m.pendingAction, chatWidth-6) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func formatEntry(entry state.NarrativeEntry, width int) string {
	prefix := entry.Speaker + ": "
	wrapped := wordwrap.String(entry.Text, width-len(prefix))

	switch {
	case entry.Type == state.EntryMemory:
		return memoryStyle.Render(prefix) + memoryStyle.Render(wrapped)
	case entry.Speaker == state.SpeakerPlayer:
		return userStyle.Render(prefix) + wrapped
	case entry.Speaker == state.SpeakerSystem:
		return errorStyle.Render(prefix) + wrapped
	default:
		return narratorStyle.Render(prefix) + wrapped
	}
}

func (m ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CASE NOTES") + "\n\n")

	content.WriteString("Location:\n")
	content.WriteString(state.LocationDisplayName(m.gs.CurrentLocation) + "\n\n")

	content.WriteString("Phase:\n")
	content.WriteString(m.gs.Phase + "\n\n")

	content.WriteString(fmt.Sprintf("Inventory (%d):\n", len(m.gs.Inventory)))
	if len(m.gs.Inventory) == 0 {
		content.WriteString("Empty\n")
	}
	for _, item := range m.gs.Inventory {
		content.WriteString("• " + item + "\n")
	}
	content.WriteString("\n")

	content.WriteString(fmt.Sprintf("Clues (%d):\n", len(m.gs.Clues)))
	for _, clue := range m.gs.Clues {
		content.WriteString("• " + clue.Name + "\n")
	}
	content.WriteString("\n")

	content.WriteString("Trust:\n")
	for _, name := range []string{state.CharacterHale, state.CharacterWren, state.CharacterMarlow} {
		if v, ok := m.gs.Trust[name]; ok {
			content.WriteString(fmt.Sprintf("• %s: %d\n", name, v))
		}
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• /notebook: Notebook\n")
	content.WriteString("• /look /who /exits\n")
	content.WriteString("• /copy: Copy log\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

func (m ConsoleUI) renderNotebook() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("DETECTIVE'S NOTEBOOK"))
	content.WriteString("\n\n")

	if len(m.gs.Clues) == 0 {
		content.WriteString("No clues yet. Look around, talk to people.\n")
	}
	for _, clue := range m.gs.Clues {
		content.WriteString(titleStyle.Render(clue.Name) + "\n")
		if clue.Description != "" {
			content.WriteString(wordwrap.String(clue.Description, 56) + "\n")
		}
		content.WriteString(promptStyle.Render(clue.DiscoveredAt.Format("15:04:05")) + "\n\n")
	}

	content.WriteString(separatorStyle.Render(strings.Repeat("─", 56)) + "\n")
	content.WriteString(fmt.Sprintf("Inventory (%d): %s\n", len(m.gs.Inventory), strings.Join(m.gs.Inventory, ", ")))
	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Press Esc to close"))

	modal := modalStyle.Width(62).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Close the case?"))
	content.WriteString("\n\n")
	content.WriteString("The investigation will not be saved.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.showNotebook {
		return m.renderNotebook()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	statusLine := m.statusLine
	if statusLine == "" {
		statusLine = promptStyle.Render("Enter to act · /help for commands")
	}

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
			statusLine,
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

// flashExpiry re-checks the transient memory flag when it should have
// cleared.
func flashExpiry() tea.Cmd {
	return tea.Tick(turn.MemoryFlashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{}
	})
}
