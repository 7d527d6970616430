package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/catalogai-go/internal/chat"
	"github.com/54b3r/catalogai-go/internal/logging"
)

// NewAskCmd constructs the `catalogai ask` command, which answers a single
// question and prints the cited catalog pages.
func NewAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the catalog a single question",
		Long: `Answer one question from the catalog index and print the answer followed
by the catalog pages it was drawn from.

Examples:
  catalogai ask "What are the prerequisites for 01:198:211?"
  catalogai ask "Which courses satisfy the writing requirement?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stack, err := buildChatStack(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer func() { _ = stack.index.Close() }()

			res, err := stack.service.Chat(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			return printAnswer(cmd.OutOrStdout(), res)
		},
	}
}

// printAnswer writes the answer and a numbered source list.
func printAnswer(w io.Writer, res *chat.Result) error {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(res.Response))
	b.WriteString("\n")
	if len(res.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for i, s := range res.Sources {
			fmt.Fprintf(&b, "  %d. %s  %s\n", i+1, s.Title, s.Link)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
