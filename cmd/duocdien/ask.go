package duocdien

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/soundprediction/duocdien/pkg/pipeline"
	"github.com/soundprediction/duocdien/pkg/search"
	"github.com/soundprediction/duocdien/pkg/types"
	"github.com/soundprediction/duocdien/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	answerStyle = lipgloss.NewStyle().PaddingLeft(2)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the knowledge graph",
	Long: `Answer one question, or start an interactive session when no question is
given. Type "exit" or "quit", or send EOF, to leave the session.`,
	RunE: runAsk,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the hybrid entity ranking for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var (
	askMode    string
	askShowCtx bool
	searchTopK int
)

func init() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(searchCmd)

	askCmd.Flags().StringVar(&askMode, "mode", "hybrid", "answering mode (hybrid, cypher)")
	askCmd.Flags().BoolVar(&askShowCtx, "show-context", false, "print the graph context or query rows used")

	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of fused results (default search.default_top_k)")
}

type askFunc func(ctx context.Context, question string) (*pipeline.Result, error)

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, log, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	a := newApp(cfg, log)
	defer a.Close()

	ctx := context.WithValue(cmd.Context(), types.ContextKeyRequestSource, "cli")
	p, err := a.Pipeline(ctx)
	if err != nil {
		return err
	}

	var ask askFunc
	switch strings.ToLower(askMode) {
	case "", "hybrid":
		ask = p.Ask
	case "cypher", "rag":
		ask = p.AskCypher
	default:
		return fmt.Errorf("unknown mode %q", askMode)
	}

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		res, err := askOnce(ctx, ask, strings.Join(args, " "))
		if err != nil {
			return err
		}
		printResult(out, res, askShowCtx)
		return nil
	}
	return repl(ctx, cmd.InOrStdin(), out, ask)
}

// askOnce answers one question, turning a panic in a collaborator into an error
// so a REPL session survives it.
func askOnce(ctx context.Context, ask askFunc, question string) (res *pipeline.Result, err error) {
	defer utils.RecoverAsError(&err)
	return ask(ctx, question)
}

func repl(ctx context.Context, in io.Reader, out io.Writer, ask askFunc) error {
	fmt.Fprintln(out, titleStyle.Render("Dược điển Việt Nam - hỏi đáp"))
	fmt.Fprintln(out, labelStyle.Render(`Nhập câu hỏi, "exit" để thoát.`))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("? "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		res, err := askOnce(ctx, ask, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(out, errorStyle.Render("Lỗi: "+err.Error()))
			continue
		}
		printResult(out, res, askShowCtx)
	}
}

func printResult(w io.Writer, res *pipeline.Result, showContext bool) {
	if res.Entity != "" {
		fmt.Fprintln(w, labelStyle.Render("Hoạt chất: ")+res.Entity)
	}
	if res.Query != "" {
		fmt.Fprintln(w, labelStyle.Render("Cypher: ")+res.Query)
	}
	fmt.Fprintln(w, answerStyle.Render(res.Answer))

	if showContext {
		for _, r := range res.Context {
			rel := r.Relation
			if rel == "" {
				rel = "self"
			}
			fmt.Fprintf(w, "%s %s (%s) %v\n", labelStyle.Render("-"), rel, r.Label, r.Properties)
		}
		for _, row := range res.Rows {
			fmt.Fprintf(w, "%s %v\n", labelStyle.Render("-"), row)
		}
	}

	meta := fmt.Sprintf("status=%s duration=%s", res.Status, res.Duration.Round(time.Millisecond))
	if res.Cached {
		meta += " cached"
	}
	fmt.Fprintln(w, labelStyle.Render(meta))
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, log, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	a := newApp(cfg, log)
	defer a.Close()

	ranker, err := a.Ranker(cmd.Context())
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")
	hits, err := ranker.SearchDetailed(cmd.Context(), query, topK(searchTopK, cfg.Search.DefaultTopK))
	if err != nil {
		return err
	}
	printHits(cmd.OutOrStdout(), query, hits)
	return nil
}

// topK picks the flag value, then the configured default, then search.DefaultTopK.
func topK(flag, configured int) int {
	switch {
	case flag > 0:
		return flag
	case configured > 0:
		return configured
	}
	return search.DefaultTopK
}

func printHits(w io.Writer, query string, hits []search.FusedHit) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d kết quả cho %q", len(hits), query)))
	for i, h := range hits {
		ranks := make([]string, len(h.Ranks))
		for j, r := range h.Ranks {
			name := string(search.Methods[j])
			if r < 0 {
				ranks[j] = name + "=-"
			} else {
				ranks[j] = fmt.Sprintf("%s=%d", name, r+1)
			}
		}
		fmt.Fprintf(w, "%2d. %-40s %.5f  %s\n", i+1, h.Name, h.Score, labelStyle.Render(strings.Join(ranks, " ")))
	}
}
