package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/tripchat/internal/metrics"
	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/raphaelgruber/tripchat/internal/session"
	"github.com/raphaelgruber/tripchat/internal/stream"
	"golang.org/x/term"
)

const defaultWidth = 80

// output writes styled text to a terminal and plain text anywhere else.
type output struct {
	w     io.Writer
	tty   bool
	width int
	theme Theme
}

func newOutput(f *os.File) *output {
	o := &output{w: f, width: defaultWidth, theme: defaultTheme}
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		o.tty = true
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			o.width = w
		}
	}
	return o
}

func (o *output) style(s lipgloss.Style, text string) string {
	if !o.tty {
		return text
	}
	return s.Render(text)
}

func (o *output) println(a ...any) {
	fmt.Fprintln(o.w, a...)
}

func (o *output) printf(format string, a ...any) {
	fmt.Fprintf(o.w, format, a...)
}

// markdown renders assistant text for a terminal. Plain output and render
// failures return the text unchanged.
func (o *output) markdown(text string) string {
	if !o.tty {
		return text
	}
	return renderMarkdown(text, o.width)
}

func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// printTurn prints everything a finished turn attached besides its text.
func (o *output) printTurn(st session.State, route *models.FlightRoute) {
	t := o.theme
	if len(st.ThoughtProcess) > 0 {
		o.println()
		for _, step := range st.ThoughtProcess {
			o.println(o.style(t.hintStyle(), "· "+step))
		}
	}
	if len(st.FlightCards) > 0 {
		o.println()
		o.println(o.style(t.titleStyle(), fmt.Sprintf("Flights (%d):", len(st.FlightCards))))
		for _, c := range st.FlightCards {
			o.println("  " + formatCard(c))
		}
	}
	if route != nil {
		o.println(o.style(t.accentStyle(), "  Route: "+formatRoute(*route)))
	}
	if st.ItineraryData != nil {
		o.println()
		o.println(o.style(t.titleStyle(), "Itinerary: ") + formatItinerary(st.ItineraryData, st.ItineraryGrounding))
	}
	if len(st.Suggestions) > 0 {
		o.println()
		for _, line := range formatSuggestions(st.Suggestions) {
			o.println(o.style(t.accentStyle(), line))
		}
	}
}

// formatCard renders a one-line flight summary.
func formatCard(c models.FlightCard) string {
	parts := []string{fmt.Sprintf("#%d", c.Rank)}
	if c.Label != "" {
		parts = append(parts, strings.ReplaceAll(c.Label, "_", " "))
	}
	if c.Airline.Name != "" {
		parts = append(parts, c.Airline.Name)
	}
	parts = append(parts, formatPrice(c.Price), formatDuration(c.Duration), formatStops(c.Stops.Count))
	if len(c.Slices) > 0 {
		parts = append(parts, formatSlice(c.Slices[0]))
	}
	return strings.Join(parts, "  ")
}

func formatPrice(p models.Price) string {
	switch {
	case p.Display != "":
		return p.Display
	case p.Formatted != "":
		return p.Formatted
	}
	return fmt.Sprintf("%s %.2f", p.Currency, p.DisplayPrice())
}

func formatDuration(d models.Duration) string {
	if d.Formatted != "" {
		return d.Formatted
	}
	if d.Hours == 0 && d.Minutes == 0 && d.TotalMinutes > 0 {
		return fmt.Sprintf("%dh %dm", d.TotalMinutes/60, d.TotalMinutes%60)
	}
	return fmt.Sprintf("%dh %dm", d.Hours, d.Minutes)
}

func formatStops(n int) string {
	switch n {
	case 0:
		return "direct"
	case 1:
		return "1 stop"
	}
	return fmt.Sprintf("%d stops", n)
}

func formatSlice(s models.FlightSlice) string {
	code := func(e *models.Endpoint) string {
		if e == nil || e.Code == "" {
			return "?"
		}
		return e.Code
	}
	out := code(s.Origin) + " → " + code(s.Destination)
	if s.Departure.Date != "" {
		out += " " + strings.TrimSpace(s.Departure.Date+" "+s.Departure.Time)
	}
	return out
}

// formatRoute renders a projected route with its endpoints.
func formatRoute(r models.FlightRoute) string {
	end := func(code, city string, c models.Coordinates) string {
		label := code
		if label == "" {
			label = "your location"
		}
		if city != "" {
			label += " (" + city + ")"
		}
		return fmt.Sprintf("%s %.4f,%.4f", label, c.Latitude, c.Longitude)
	}
	return end(r.OriginCode, r.OriginCity, r.Origin) + " → " +
		end(r.DestinationCode, r.DestinationCity, r.Destination)
}

func formatItinerary(it *models.ItineraryData, g *models.ItineraryGrounding) string {
	out := it.TripTitle
	if out == "" {
		out = it.City
	}
	out += fmt.Sprintf(" (%d days)", len(it.Days))
	if g != nil && g.IsRAGGrounded {
		out += fmt.Sprintf(", %d/%d verified places", g.VerifiedPlaces, g.PlacesUsed)
	}
	return out
}

// formatSuggestions numbers suggestions from 1, matching "/s N".
func formatSuggestions(list []models.Suggestion) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = fmt.Sprintf("[%d] %s", i+1, s.Label)
	}
	return out
}

// describeEvent renders one decoded stream event for --raw output.
func describeEvent(ev stream.Event) string {
	switch ev := ev.(type) {
	case stream.Token:
		return fmt.Sprintf("token     %q", ev.Content)
	case stream.Thinking:
		return fmt.Sprintf("thinking  %s", strings.Join(ev.Steps, " | "))
	case stream.Done:
		return fmt.Sprintf("done      session=%s suggestions=%d", ev.SessionID, len(ev.Suggestions))
	case stream.Error:
		return fmt.Sprintf("error     %s", ev.Message)
	case stream.Payload:
		return "payload   " + describePayload(ev.Data)
	}
	return fmt.Sprintf("%-9s %v", ev.Kind(), ev)
}

func describePayload(p stream.PayloadData) string {
	switch p := p.(type) {
	case stream.FlightCards:
		return fmt.Sprintf("flight_cards flights=%d", len(p.Flights))
	case stream.Itinerary:
		title := ""
		if p.Itinerary != nil {
			title = p.Itinerary.TripTitle
		}
		return fmt.Sprintf("itinerary %q", title)
	case stream.Suggestions:
		return fmt.Sprintf("suggestions count=%d", len(p.Suggestions))
	case stream.UIComponent:
		return fmt.Sprintf("ui_component %s", p.Component())
	case stream.TripSaved:
		return fmt.Sprintf("trip_saved id=%d", p.TripID())
	}
	return string(p.PayloadType())
}

// printStats writes client statistics.
func printStats(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintf(w, "Client Statistics (in-memory, this run)\n")
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", snap.UptimeSeconds)

	if snap.Turn != nil {
		fmt.Fprintf(w, "\nTurns:\n")
		printOpStats(w, snap.Turn)
		printStreamStats(w, snap.Turn)
	}
	if snap.TurnFailed != nil {
		fmt.Fprintf(w, "\nFailed turns:\n")
		printOpStats(w, snap.TurnFailed)
	}
	if snap.FirstToken != nil {
		fmt.Fprintf(w, "\nTime to first token:\n")
		printOpStats(w, snap.FirstToken)
	}
	if snap.Request != nil {
		fmt.Fprintf(w, "\nREST requests:\n")
		printOpStats(w, snap.Request)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op *metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printStreamStats displays frame and token counts if available.
func printStreamStats(w io.Writer, op *metrics.OperationSnapshot) {
	if op.TotalFrames == nil || op.TotalTokens == nil {
		return
	}
	fmt.Fprintf(w, "  Frames: %d total\n", *op.TotalFrames)
	fmt.Fprintf(w, "  Tokens: %d total", *op.TotalTokens)
	if op.AvgTokens != nil {
		fmt.Fprintf(w, ", avg %.0f", *op.AvgTokens)
	}
	if op.MinTokens != nil && op.MaxTokens != nil {
		fmt.Fprintf(w, ", min %d, max %d", *op.MinTokens, *op.MaxTokens)
	}
	fmt.Fprintln(w)
}
