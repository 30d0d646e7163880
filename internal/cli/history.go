package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/raphaelgruber/tripchat/internal/history"
	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/raphaelgruber/tripchat/internal/session"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var historyOutputFile string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show, delete or export saved conversations",
	Long: `Work with conversations saved by the backend.

Subcommands:
  list     List saved conversations (default)
  show     Print a conversation
  delete   Delete a conversation
  export   Write a conversation as YAML

Examples:
  tripchat history
  tripchat history show 3f2a...
  tripchat history export 3f2a... -o rome.yaml
  tripchat history delete 3f2a...`,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a saved conversation as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

func init() {
	historyExportCmd.Flags().StringVarP(&historyOutputFile, "output", "o", "", "write to file instead of stdout")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyExportCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store := history.New(apiClient, nil, logger)
	conversations, err := store.LoadConversations(cmd.Context())
	if err != nil {
		return err
	}

	if len(conversations) == 0 {
		fmt.Println("No saved conversations.")
		return nil
	}

	out := newOutput(os.Stdout)
	out.printf("Conversations (%d):\n\n", len(conversations))
	for _, c := range conversations {
		out.println(formatConversation(c))
		if verbose && c.Preview != "" {
			out.println(out.style(out.theme.hintStyle(), "  "+c.Preview))
		}
	}
	return nil
}

// runHistoryShow restores the conversation into a session and prints what
// the session holds, so it shows exactly what a resumed chat would.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	s := session.New(apiClient, session.WithLogger(logger))
	store := history.New(apiClient, s, logger)

	detail, err := store.LoadConversation(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := newOutput(os.Stdout)
	t := out.theme
	out.println(out.style(t.titleStyle(), detail.Title))
	out.println()

	st := s.State()
	for _, m := range st.Messages {
		if m.Role == models.RoleUser {
			out.println(out.style(t.userStyle(), "you: ") + m.Content)
		} else {
			out.println(out.style(t.assistantStyle(), "assistant:"))
			out.println(out.markdown(m.Content))
		}
		out.println()
	}
	out.printTurn(st, nil)
	if detail.FlightCardsExpired {
		out.println(out.style(t.hintStyle(), "Flight prices may have changed since this search."))
	}
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store := history.New(apiClient, nil, logger)
	if err := store.DeleteConversation(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted conversation %s\n", args[0])
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store := history.New(apiClient, nil, logger)
	detail, err := store.LoadConversation(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if historyOutputFile != "" {
		f, err := os.Create(historyOutputFile)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := exportConversation(w, detail); err != nil {
		return err
	}
	if historyOutputFile != "" {
		fmt.Printf("Exported %d messages to %s\n", len(detail.Messages), historyOutputFile)
	}
	return nil
}

func exportConversation(w io.Writer, detail *models.ConversationDetail) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(detail); err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	return enc.Close()
}

func formatConversation(c models.ConversationSummary) string {
	title := c.Title
	if title == "" {
		title = "(untitled)"
	}
	line := fmt.Sprintf("- %s  %s  [%d messages]", c.SessionID, title, c.MessageCount)
	if c.HasFlights {
		line += " [flights]"
	}
	if c.HasItinerary {
		line += " [itinerary]"
	}
	if c.TripID != nil {
		line += fmt.Sprintf(" [trip #%d]", *c.TripID)
	}
	return line
}
