package duocdien

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/soundprediction/duocdien/pkg/benchmark"
	"github.com/soundprediction/duocdien/pkg/checkpoint"
	"github.com/soundprediction/duocdien/pkg/types"
	"github.com/soundprediction/duocdien/pkg/utils"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score an answering system on the 1-hop and 2-hop question sets",
	Long: `Score an answering system on the benchmark question sets with BLEU,
ROUGE-L and METEOR.

Modes:
  rag       text-to-Cypher over the knowledge graph
  hybrid    hybrid entity resolution plus graph lookup
  zeroshot  the model alone, without retrieval

Writes report_<mode>.txt, log_<mode>.json and results_<mode>.parquet into
the output directory. With --resume, scored questions are checkpointed under
<out-dir>/.checkpoints and a rerun continues after the last one.`,
	RunE: runEval,
}

var (
	evalMode         string
	evalOneHop       string
	evalTwoHop       string
	evalOutDir       string
	evalMaxQuestions int
	evalResume       bool
)

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalMode, "mode", "hybrid", "answering system (rag, hybrid, zeroshot)")
	evalCmd.Flags().StringVar(&evalOneHop, "one-hop", "1hop.json", "1-hop question file; empty skips it")
	evalCmd.Flags().StringVar(&evalTwoHop, "two-hop", "2hop.json", "2-hop question file; empty skips it")
	evalCmd.Flags().StringVarP(&evalOutDir, "out-dir", "o", ".", "directory for the report, log and parquet results")
	evalCmd.Flags().IntVar(&evalMaxQuestions, "max-questions", 0, "questions per set (default from config)")
	evalCmd.Flags().BoolVar(&evalResume, "resume", false, "checkpoint progress and continue an interrupted run")
}

type questionSet struct {
	label string
	path  string
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, log, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	sets := []questionSet{{"1-hop", evalOneHop}, {"2-hop", evalTwoHop}}
	questions := make(map[string][]benchmark.Question)
	for _, s := range sets {
		if s.path == "" {
			continue
		}
		qs, err := benchmark.ReadJSONFile[benchmark.Question](s.path)
		if err != nil {
			return fmt.Errorf("failed to load %s questions: %w", s.label, err)
		}
		questions[s.label] = qs
	}
	if len(questions) == 0 {
		return errors.New("no question sets given")
	}

	runID := utils.GenerateUUID()
	ctx := context.WithValue(cmd.Context(), types.ContextKeyEvalRun, runID)
	ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "eval")

	a := newApp(cfg, log)
	defer a.Close()

	answerer, err := newAnswerer(ctx, a, evalMode)
	if err != nil {
		return err
	}

	var (
		store *checkpoint.Manager
		cp    *checkpoint.RunCheckpoint
	)
	if evalResume {
		store, err = checkpoint.NewManager(filepath.Join(evalOutDir, ".checkpoints"))
		if err != nil {
			return err
		}
		var found bool
		cp, found, err = store.LoadOrCreate(ctx, answerer.Name(), runID, answerer.Name())
		if err != nil {
			return err
		}
		if found {
			runID = cp.RunID
			ctx = context.WithValue(ctx, types.ContextKeyEvalRun, runID)
			log.Info("resuming evaluation", "run_id", runID, "checkpoint", store.Dir())
		}
	}

	runner := benchmark.NewRunner(answerer)
	runner.Logger = log.With("run_id", runID)
	runner.MaxQuestions = cfg.Benchmark.MaxQuestions
	if evalMaxQuestions > 0 {
		runner.MaxQuestions = evalMaxQuestions
	}
	runner.Delay = cfg.Benchmark.Delay
	runner.Retries = cfg.Benchmark.Retries
	runner.RetryDelay = cfg.Benchmark.RetryDelay
	if cp != nil {
		runner.OnEntry = func(label string, e benchmark.LogEntry) {
			cp.Add(label, e)
			if err := store.Save(context.Background(), cp); err != nil {
				log.Warn("failed to save checkpoint", "error", err)
			}
		}
	}

	summaries := make(map[string]benchmark.Summary)
	logs := make(map[string][]benchmark.LogEntry)
	interrupted := false
	for _, s := range sets {
		qs, ok := questions[s.label]
		if !ok {
			continue
		}
		if runner.MaxQuestions > 0 && len(qs) > runner.MaxQuestions {
			qs = qs[:runner.MaxQuestions]
		}

		var done []benchmark.LogEntry
		if cp != nil {
			done = cp.Entries[s.label]
		}
		entries := done[:len(done):len(done)]
		if len(done) < len(qs) && (cp == nil || !cp.Completed[s.label]) {
			_, fresh := runner.Run(ctx, s.label, qs[len(done):])
			entries = append(entries, fresh...)
		}
		summaries[s.label] = benchmark.Summarize(s.label, entries)
		logs[s.label] = entries

		if ctx.Err() != nil {
			log.Warn("evaluation interrupted, writing partial results")
			interrupted = true
			break
		}
		if cp != nil {
			cp.Complete(s.label)
			if err := store.Save(ctx, cp); err != nil {
				log.Warn("failed to save checkpoint", "error", err)
			}
		}
	}
	if cp != nil && !interrupted {
		if err := store.Delete(context.Background(), cp.Key); err != nil {
			log.Warn("failed to remove checkpoint", "error", err)
		}
	}

	if err := writeEvalOutputs(evalOutDir, runID, answerer.Name(), summaries, logs); err != nil {
		return err
	}
	printSummaries(cmd.OutOrStdout(), answerer.Name(), summaries)
	return nil
}

func newAnswerer(ctx context.Context, a *app, mode string) (benchmark.Answerer, error) {
	switch strings.ToLower(mode) {
	case "zeroshot", "zero-shot":
		gen, err := a.Answerer()
		if err != nil {
			return nil, err
		}
		return benchmark.NewZeroShotAnswerer(gen), nil
	case "rag", "cypher":
		p, err := a.Pipeline(ctx)
		if err != nil {
			return nil, err
		}
		return benchmark.NewRAGAnswerer(p), nil
	case "hybrid":
		p, err := a.Pipeline(ctx)
		if err != nil {
			return nil, err
		}
		return benchmark.NewHybridAnswerer(p), nil
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

func writeEvalOutputs(dir, runID, answerer string, summaries map[string]benchmark.Summary, logs map[string][]benchmark.LogEntry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	err := writeFile(filepath.Join(dir, "report_"+answerer+".txt"), func(w io.Writer) error {
		if answerer != "zeroshot" {
			return benchmark.WriteReport(w, answerer, summaries)
		}
		for _, label := range []string{"1-hop", "2-hop"} {
			s, ok := summaries[label]
			if !ok {
				continue
			}
			if err := benchmark.WriteZeroShotReport(w, label, s); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = writeFile(filepath.Join(dir, "log_"+answerer+".json"), func(w io.Writer) error {
		return benchmark.WriteLogJSON(w, logs)
	})
	if err != nil {
		return err
	}

	return writeFile(filepath.Join(dir, "results_"+answerer+".parquet"), func(w io.Writer) error {
		return benchmark.WriteParquet(w, benchmark.Records(runID, answerer, logs))
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

var tableStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("12")).
	Padding(0, 1)

func printSummaries(w io.Writer, answerer string, summaries map[string]benchmark.Summary) {
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %5s %5s %8s %8s %8s %8s\n", "set", "n", "lỗi", "BLEU", "ROUGE-L", "METEOR", "TB(s)")
	for _, label := range []string{"1-hop", "2-hop"} {
		s, ok := summaries[label]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%-6s %5d %5d %8.4f %8.4f %8.4f %8.2f\n",
			label, s.Count, s.Failed, s.BLEU, s.RougeL, s.Meteor, s.AvgSeconds)
	}
	fmt.Fprintln(w, titleStyle.Render("Kết quả: "+answerer))
	fmt.Fprintln(w, tableStyle.Render(strings.TrimSuffix(b.String(), "\n")))
}
