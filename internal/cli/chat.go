package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/tripchat/internal/history"
	"github.com/raphaelgruber/tripchat/internal/mapstate"
	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/raphaelgruber/tripchat/internal/session"
	"github.com/raphaelgruber/tripchat/internal/stream"
	"github.com/spf13/cobra"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Chat with the trip planning assistant.

Replies stream in as they are generated. Flight results, the projected
route, itineraries and numbered follow-up suggestions are shown below the
conversation.

Commands:
  /s N        send suggestion N
  /clear      start a new conversation
  /history    list saved conversations
  /load ID    resume a saved conversation
  /stats      toggle client statistics
  /quit       exit (also Esc or Ctrl+C)

Examples:
  tripchat chat
  tripchat chat --session 3f2a...`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "resume a saved conversation")
}

var chatHelp = []string{
	"/s N  send suggestion N",
	"/clear  start over    /history  saved conversations    /load ID  resume one",
	"/stats  toggle statistics    /quit  exit",
}

// Messages delivered to the chat model. Session and map updates arrive from
// listeners through Program.Send; everything else is the result of a command.
type (
	stateMsg    session.State
	mapMsg      mapstate.State
	payloadMsg  struct{ data stream.PayloadData }
	sendDoneMsg struct{ err error }
	loadDoneMsg struct {
		id  string
		err error
	}
	historyMsg struct {
		conversations []models.ConversationSummary
		err           error
	}
	noticeMsg string
)

type renderedMessage struct {
	content string
	out     string
}

// chatModel is the bubbletea model for the chat UI.
//
// Session operations notify listeners synchronously and the listeners call
// Program.Send, so Update never calls into the session directly; it returns
// commands that do.
type chatModel struct {
	ctx      context.Context
	session  *session.Session
	history  *history.Store
	mapStore *mapstate.Store
	userID   *int64
	resume   string

	input   textinput.Model
	spinner spinner.Model
	theme   Theme

	state     session.State
	mapState  mapstate.State
	notice    []string
	sending   bool
	showStats bool
	width     int
	height    int

	// rendered caches markdown output by message id.
	rendered map[string]renderedMessage
}

func newChatModel(ctx context.Context, s *session.Session, h *history.Store, store *mapstate.Store, userID *int64) chatModel {
	input := textinput.New()
	input.Placeholder = "Where do you want to go? (/help for commands)"
	input.CharLimit = 2000
	input.Focus()

	return chatModel{
		ctx:      ctx,
		session:  s,
		history:  h,
		mapStore: store,
		userID:   userID,
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:    defaultTheme,
		state:    s.State(),
		mapState: store.Snapshot(),
		width:    defaultWidth,
		rendered: map[string]renderedMessage{},
	}
}

// Init returns the initial command.
func (m chatModel) Init() tea.Cmd {
	if m.resume != "" {
		return tea.Batch(textinput.Blink, m.loadCmd(m.resume))
	}
	return textinput.Blink
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(msg.Width-4, 10))
		m.rendered = map[string]renderedMessage{}
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			return m.submit(text)
		}

	case stateMsg:
		m.state = session.State(msg)
		return m, nil

	case mapMsg:
		m.mapState = mapstate.State(msg)
		return m, nil

	case payloadMsg:
		m.notice = []string{payloadNotice(msg.data)}
		return m, nil

	case sendDoneMsg:
		m.sending = false
		// Other failures are already in the session's Error.
		if errors.Is(msg.err, session.ErrTurnInFlight) {
			m.notice = []string{"Wait for the current reply to finish."}
		}
		return m, nil

	case loadDoneMsg:
		if msg.err != nil {
			m.notice = []string{"Could not load conversation: " + msg.err.Error()}
		} else {
			m.notice = []string{"Resumed conversation " + msg.id}
		}
		return m, nil

	case historyMsg:
		m.notice = historyNotice(msg.conversations, msg.err)
		return m, nil

	case noticeMsg:
		m.notice = []string{string(msg)}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) busy() bool {
	return m.sending || m.state.IsLoading
}

// submit handles one line of input: a slash command or a chat message.
func (m chatModel) submit(text string) (tea.Model, tea.Cmd) {
	if text == "" {
		return m, nil
	}
	if !strings.HasPrefix(text, "/") {
		return m.send(func(ctx context.Context) error {
			return m.session.SendMessage(ctx, text, m.userID)
		})
	}

	name, arg := parseCommand(text)
	switch name {
	case "quit", "q", "exit":
		return m, tea.Quit

	case "help":
		m.notice = chatHelp
		return m, nil

	case "clear":
		return m, m.clearCmd()

	case "s":
		i, err := suggestionIndex(arg, len(m.state.Suggestions))
		if err != nil {
			m.notice = []string{err.Error()}
			return m, nil
		}
		suggestion := m.state.Suggestions[i]
		return m.send(func(ctx context.Context) error {
			return m.session.AddSuggestionClick(ctx, suggestion)
		})

	case "load":
		if arg == "" {
			m.notice = []string{"Usage: /load <session-id>"}
			return m, nil
		}
		return m, m.loadCmd(arg)

	case "history":
		return m, m.historyCmd()

	case "stats":
		m.showStats = !m.showStats
		return m, nil
	}

	m.notice = []string{fmt.Sprintf("Unknown command /%s, try /help", name)}
	return m, nil
}

// send starts a turn in a command so Update stays responsive.
func (m chatModel) send(fn func(context.Context) error) (tea.Model, tea.Cmd) {
	if m.busy() {
		m.notice = []string{"Wait for the current reply to finish."}
		return m, nil
	}
	m.sending = true
	m.notice = nil
	ctx := m.ctx
	return m, tea.Batch(
		func() tea.Msg { return sendDoneMsg{err: fn(ctx)} },
		m.spinner.Tick,
	)
}

func (m chatModel) clearCmd() tea.Cmd {
	s, store := m.session, m.mapStore
	return func() tea.Msg {
		s.ClearChat()
		store.ResetView()
		return noticeMsg("Started a new conversation.")
	}
}

func (m chatModel) loadCmd(id string) tea.Cmd {
	ctx, h := m.ctx, m.history
	return func() tea.Msg {
		_, err := h.LoadConversation(ctx, id)
		return loadDoneMsg{id: id, err: err}
	}
}

func (m chatModel) historyCmd() tea.Cmd {
	ctx, h := m.ctx, m.history
	return func() tea.Msg {
		list, err := h.LoadConversations(ctx)
		return historyMsg{conversations: list, err: err}
	}
}

// View renders the chat.
func (m chatModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m chatModel) render() string {
	t := m.theme

	header := t.titleStyle().Render("tripchat")
	if m.state.SessionID != "" {
		header += t.hintStyle().Render("  session " + m.state.SessionID)
	}

	lines := []string{header, ""}
	for _, msg := range m.state.Messages {
		lines = append(lines, m.renderMessage(msg)...)
		lines = append(lines, "")
	}
	lines = append(lines, m.renderResults()...)

	footer := m.renderFooter()
	body := fitHeight(strings.Join(lines, "\n"), m.height-lipgloss.Height(footer))
	return body + "\n" + footer
}

func (m chatModel) renderMessage(msg models.ChatMessage) []string {
	t := m.theme
	if msg.Role == models.RoleUser {
		return []string{t.userStyle().Render("you: ") + msg.Content}
	}

	lines := []string{t.assistantStyle().Render("assistant:")}
	if msg.IsStreaming {
		for _, step := range m.state.ThoughtProcess {
			lines = append(lines, t.hintStyle().Render("· "+step))
		}
		return append(lines, msg.Content+m.spinner.View())
	}

	lines = append(lines, m.markdown(msg))
	if n := len(msg.FlightCards); n > 0 {
		lines = append(lines, t.hintStyle().Render(fmt.Sprintf("(%d flight options)", n)))
	}
	return lines
}

// markdown renders a finished message once per content and width.
func (m chatModel) markdown(msg models.ChatMessage) string {
	if r, ok := m.rendered[msg.ID]; ok && r.content == msg.Content {
		return r.out
	}
	out := renderMarkdown(msg.Content, m.width)
	m.rendered[msg.ID] = renderedMessage{content: msg.Content, out: out}
	return out
}

// renderResults shows the side-channel state of the latest turn.
func (m chatModel) renderResults() []string {
	t := m.theme
	var lines []string

	if !m.state.IsStreaming && len(m.state.FlightCards) > 0 {
		lines = append(lines, t.titleStyle().Render(fmt.Sprintf("Flights (%d):", len(m.state.FlightCards))))
		for _, c := range m.state.FlightCards {
			lines = append(lines, "  "+formatCard(c))
		}
	}

	switch {
	case m.mapState.Loading:
		lines = append(lines, t.hintStyle().Render("  locating route..."))
	case m.mapState.Route != nil:
		lines = append(lines, t.accentStyle().Render("  Route: "+formatRoute(*m.mapState.Route)))
	}
	if m.mapState.Error != "" {
		lines = append(lines, t.errorStyle().Render("  "+m.mapState.Error))
	}

	if it := m.state.ItineraryData; it != nil {
		lines = append(lines, t.titleStyle().Render("Itinerary: ")+formatItinerary(it, m.state.ItineraryGrounding))
	}

	if len(m.state.Suggestions) > 0 {
		lines = append(lines, t.accentStyle().Render(strings.Join(formatSuggestions(m.state.Suggestions), "  ")))
	}
	return lines
}

func (m chatModel) renderFooter() string {
	t := m.theme
	var lines []string

	if m.state.Error != "" {
		lines = append(lines, t.errorStyle().Render("✗ "+m.state.Error))
	}
	for _, n := range m.notice {
		lines = append(lines, t.hintStyle().Render(n))
	}
	if m.showStats {
		var b strings.Builder
		printStats(&b, collector.Snapshot())
		lines = append(lines, strings.TrimRight(b.String(), "\n"))
	}

	prompt := m.input.View()
	if m.busy() {
		prompt = m.spinner.View() + " " + prompt
	}
	lines = append(lines, t.inputStyle().Render(prompt))
	return strings.Join(lines, "\n")
}

// fitHeight keeps the last height lines of s. A non-positive height keeps
// everything.
func fitHeight(s string, height int) string {
	if height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}

// parseCommand splits "/name arg..." into a lower-case name and the trimmed
// rest.
func parseCommand(text string) (name, arg string) {
	name, arg, _ = strings.Cut(strings.TrimPrefix(text, "/"), " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

// suggestionIndex converts a 1-based suggestion number to an index.
func suggestionIndex(arg string, n int) (int, error) {
	if n == 0 {
		return 0, errors.New("no suggestions to pick from")
	}
	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("pick a suggestion between 1 and %d", n)
	}
	return i - 1, nil
}

func payloadNotice(p stream.PayloadData) string {
	switch p := p.(type) {
	case stream.TripSaved:
		if id := p.TripID(); id != 0 {
			return fmt.Sprintf("Trip saved (#%d).", id)
		}
		return "Trip saved."
	case stream.UIComponent:
		if c := p.Component(); c != "" {
			return "The assistant asks for input: " + strings.ReplaceAll(c, "_", " ")
		}
	}
	return describePayload(p)
}

func historyNotice(list []models.ConversationSummary, err error) []string {
	if err != nil {
		return []string{"Could not load conversations: " + err.Error()}
	}
	if len(list) == 0 {
		return []string{"No saved conversations."}
	}
	lines := make([]string, 0, min(len(list), 10)+1)
	for _, c := range list[:min(len(list), 10)] {
		lines = append(lines, formatConversation(c))
	}
	return append(lines, "Resume one with /load <session-id>.")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mapStore := mapstate.New(apiClient, logger)

	var p *tea.Program
	s := session.New(apiClient,
		session.WithLogger(logger),
		session.WithCollector(collector),
		session.WithRouteSink(mapStore),
		session.WithLocator(mapStore),
		session.WithPayloadListener(func(d stream.PayloadData) {
			p.Send(payloadMsg{data: d})
		}),
	)
	h := history.New(apiClient, s, logger)

	m := newChatModel(ctx, s, h, mapStore, cfg.UserID)
	m.resume = chatSession
	p = tea.NewProgram(m)

	unsubscribeSession := s.Subscribe(func(st session.State) { p.Send(stateMsg(st)) })
	unsubscribeMap := mapStore.Subscribe(func(st mapstate.State) { p.Send(mapMsg(st)) })

	_, err := p.Run()

	unsubscribeSession()
	unsubscribeMap()
	cancel()
	s.ClearChat()
	s.Wait()

	if err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
