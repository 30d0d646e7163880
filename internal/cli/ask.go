package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/raphaelgruber/tripchat/internal/mapstate"
	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/raphaelgruber/tripchat/internal/session"
	"github.com/raphaelgruber/tripchat/internal/stream"
	"github.com/spf13/cobra"
)

var (
	askSession  string
	askNoStream bool
	askRaw      bool
	askStats    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message and print the reply",
	Long: `Send a single message to the assistant and print the reply as it streams.

Flight results, the projected route, itinerary and follow-up suggestions are
printed after the reply. Pass --session to continue an earlier conversation.

Examples:
  tripchat ask "Flights from London to New York next Friday"
  tripchat ask "Make it a direct flight" --session 3f2a...
  tripchat ask "Plan 3 days in Rome" --no-stream
  tripchat ask "Cheapest flight to Tokyo" --raw`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "continue an existing conversation")
	askCmd.Flags().BoolVar(&askNoStream, "no-stream", false, "use the non-streaming endpoint")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "print decoded stream events instead of the reply")
	askCmd.Flags().BoolVar(&askStats, "stats", false, "print client statistics afterwards")
}

func runAsk(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return fmt.Errorf("message is empty")
	}
	ctx := cmd.Context()
	out := newOutput(os.Stdout)

	var err error
	switch {
	case askNoStream:
		err = askOnce(ctx, out, message)
	case askRaw:
		err = askRawEvents(ctx, out, message)
	default:
		err = askStreaming(ctx, out, message)
	}
	if err != nil {
		return err
	}

	if askStats {
		out.println()
		printStats(out.w, collector.Snapshot())
	}
	return nil
}

func askRequest(message string) models.ChatRequest {
	return models.ChatRequest{Message: message, SessionID: askSession, UserID: cfg.UserID}
}

// askStreaming runs one turn through a chat session, printing tokens as the
// session publishes them.
func askStreaming(ctx context.Context, out *output, message string) error {
	mapStore := mapstate.New(apiClient, logger)
	s := session.New(apiClient,
		session.WithLogger(logger),
		session.WithCollector(collector),
		session.WithRouteSink(mapStore),
		session.WithLocator(mapStore),
		session.WithPayloadListener(func(p stream.PayloadData) {
			logger.Info("payload received", "type", p.PayloadType())
		}),
	)
	if askSession != "" {
		s.RestoreSession(askSession, nil, nil, nil)
	}

	// Listeners run one at a time, so printed needs no lock.
	printed := 0
	unsubscribe := s.Subscribe(func(st session.State) {
		msg, ok := st.StreamingMessage()
		if !ok || len(msg.Content) <= printed {
			return
		}
		fmt.Fprint(out.w, msg.Content[printed:])
		printed = len(msg.Content)
	})
	err := s.SendMessage(ctx, message, cfg.UserID)
	unsubscribe()
	s.Wait()
	if printed > 0 {
		out.println()
	}
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	st := s.State()
	out.printTurn(st, mapStore.Snapshot().Route)
	if st.SessionID != "" {
		out.println()
		out.println(out.style(out.theme.hintStyle(), "session "+st.SessionID))
	}
	return nil
}

// askOnce uses the non-streaming endpoint and renders the reply as markdown.
func askOnce(ctx context.Context, out *output, message string) error {
	resp, err := apiClient.SendMessage(ctx, askRequest(message))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	out.println(out.markdown(resp.Response))
	st := session.State{
		SessionID:      resp.SessionID,
		FlightCards:    resp.FlightCards,
		Suggestions:    resp.Suggestions,
		ThoughtProcess: resp.ThoughtProcess,
		ItineraryData:  resp.ItineraryData,
	}
	out.printTurn(st, nil)
	if resp.SavedTripID != nil {
		out.println(out.style(out.theme.successStyle(), fmt.Sprintf("Trip saved (#%d)", *resp.SavedTripID)))
	}
	if resp.SessionID != "" {
		out.println()
		out.println(out.style(out.theme.hintStyle(), "session "+resp.SessionID))
	}
	return nil
}

// askRawEvents decodes the stream directly and prints one line per event.
func askRawEvents(ctx context.Context, out *output, message string) error {
	body, err := apiClient.OpenStream(ctx, askRequest(message))
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}

	dec := stream.NewDecoder(logger)
	for ev, err := range dec.Events(ctx, body) {
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
		out.println(describeEvent(ev))
	}
	return nil
}
