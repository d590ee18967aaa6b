package duocdien

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/soundprediction/duocdien/pkg/benchmark"
	"github.com/soundprediction/duocdien/pkg/driver"
	"github.com/soundprediction/duocdien/pkg/ingest"
	"github.com/spf13/cobra"
)

var parseDocxCmd = &cobra.Command{
	Use:   "parse-docx <file.docx|dir>...",
	Short: "Extract monographs from pharmacopoeia .docx files into CSV",
	Long: `Extract monographs from pharmacopoeia .docx files into one CSV with the
fixed monograph columns. Directories are scanned for *.docx files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParseDocx,
}

var loadKGCmd = &cobra.Command{
	Use:   "load-kg <file.csv>",
	Short: "Load a monograph or disease CSV into Neo4j",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoadKG,
}

var triplesCmd = &cobra.Command{
	Use:   "triples <file.csv>",
	Short: "Convert a monograph CSV into (drug, relation, value) triples",
	Args:  cobra.ExactArgs(1),
	RunE:  runTriples,
}

var questionsCmd = &cobra.Command{
	Use:   "questions <file.csv>",
	Short: "Generate 1-hop and 2-hop benchmark questions from a monograph CSV",
	Long: `Generate benchmark questions from a monograph CSV. Template questions are
rephrased by the configured LLM. Items with the same bracketed entity and
relation are merged so each question carries every valid answer.

Writes 1hop.json and 2hop.json into the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuestions,
}

var (
	parseOutput string

	loadSchema      string
	loadClear       bool
	loadSkipIndices bool

	triplesOutput string

	questionsOutDir      string
	questionsConcurrency int
	questionsNoMerge     bool
	questionsSkip2Hop    bool
)

func init() {
	rootCmd.AddCommand(parseDocxCmd, loadKGCmd, triplesCmd, questionsCmd)

	parseDocxCmd.Flags().StringVarP(&parseOutput, "output", "o", "", "CSV output path (default stdout)")

	loadKGCmd.Flags().StringVar(&loadSchema, "schema", "", "graph schema (pharmacopoeia, disease); default from config")
	loadKGCmd.Flags().BoolVar(&loadClear, "clear", false, "delete every node before loading")
	loadKGCmd.Flags().BoolVar(&loadSkipIndices, "skip-indices", false, "do not create indices and constraints")

	triplesCmd.Flags().StringVarP(&triplesOutput, "output", "o", "", "JSON output path (default stdout)")

	questionsCmd.Flags().StringVarP(&questionsOutDir, "out-dir", "o", ".", "directory for 1hop.json and 2hop.json")
	questionsCmd.Flags().IntVar(&questionsConcurrency, "concurrency", 0, "concurrent rephrase requests (default from config)")
	questionsCmd.Flags().BoolVar(&questionsNoMerge, "no-merge", false, "keep duplicate entity questions unmerged")
	questionsCmd.Flags().BoolVar(&questionsSkip2Hop, "skip-2hop", false, "only generate 1-hop questions")
}

func runParseDocx(cmd *cobra.Command, args []string) error {
	_, log, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	paths, err := docxPaths(args)
	if err != nil {
		return err
	}

	var all []ingest.Monograph
	for _, path := range paths {
		ms, err := ingest.ParseDocx(path)
		if err != nil {
			log.Error("failed to parse document", "path", path, "error", err)
			continue
		}
		log.Info("parsed document", "path", path, "monographs", len(ms))
		all = append(all, ms...)
	}
	if len(all) == 0 {
		return fmt.Errorf("no monographs found in %d document(s)", len(paths))
	}

	return withOutput(cmd, parseOutput, func(w io.Writer) error {
		return ingest.WriteMonographCSV(w, all)
	})
}

// docxPaths expands directories in args to the .docx files they contain.
func docxPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.docx"))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			// Word lock files
			if !strings.HasPrefix(filepath.Base(m), "~$") {
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

func runLoadKG(cmd *cobra.Command, args []string) error {
	cfg, log, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	if loadSchema != "" {
		cfg.Graph.Schema = loadSchema
	}
	a := newApp(cfg, log)
	defer a.Close()

	ctx := cmd.Context()
	graph, err := a.Graph()
	if err != nil {
		return err
	}
	if err := graph.VerifyConnectivity(ctx); err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if loadClear {
		log.Warn("clearing graph", "uri", cfg.Database.URI)
		if err := graph.ClearGraph(ctx); err != nil {
			return err
		}
	}
	if !loadSkipIndices {
		if err := graph.CreateIndices(ctx); err != nil {
			return err
		}
	}

	var stats driver.LoadStats
	switch graph.Schema() {
	case driver.SchemaDisease:
		records, err := ingest.ReadDiseaseCSV(f, ingest.WithLogger(log))
		if err != nil {
			return err
		}
		stats, err = graph.LoadDiseases(ctx, records)
		if err != nil {
			return err
		}
	default:
		monographs, err := ingest.ReadMonographCSV(f, ingest.WithLogger(log))
		if err != nil {
			return err
		}
		stats, err = graph.LoadMonographs(ctx, monographs)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render("Nạp dữ liệu hoàn tất"))
	fmt.Fprintf(cmd.OutOrStdout(), "rows=%d loaded=%d skipped=%d failed=%d associated_created=%d associated_skipped=%d\n",
		stats.Rows, stats.Loaded, stats.Skipped, stats.Failed, stats.AssociatedCreated, stats.AssociatedSkipped)
	return nil
}

func readMonographs(path string) ([]ingest.Monograph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ingest.ReadMonographCSV(f)
}

func runTriples(cmd *cobra.Command, args []string) error {
	_, log, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	monographs, err := readMonographs(args[0])
	if err != nil {
		return err
	}
	triples := benchmark.BuildTriples(monographs)
	log.Info("built triples", "monographs", len(monographs), "triples", len(triples))

	return withOutput(cmd, triplesOutput, func(w io.Writer) error {
		return benchmark.WriteJSON(w, triples)
	})
}

func runQuestions(cmd *cobra.Command, args []string) error {
	cfg, log, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	monographs, err := readMonographs(args[0])
	if err != nil {
		return err
	}
	triples := benchmark.BuildTriples(monographs)

	a := newApp(cfg, log)
	defer a.Close()
	llm, err := a.LLM()
	if err != nil {
		return err
	}

	concurrency := questionsConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Benchmark.Concurrency
	}
	gen := benchmark.NewQuestionGenerator(llm,
		benchmark.WithConcurrency(concurrency),
		benchmark.WithGeneratorLogger(log))

	if err := os.MkdirAll(questionsOutDir, 0o755); err != nil {
		return err
	}

	ctx := cmd.Context()
	oneHop, err := gen.OneHop(ctx, triples)
	if err != nil {
		return err
	}
	if err := writeQuestions(filepath.Join(questionsOutDir, "1hop.json"), oneHop, log); err != nil {
		return err
	}

	if questionsSkip2Hop {
		return nil
	}
	twoHop, err := gen.TwoHop(ctx, triples)
	if err != nil {
		return err
	}
	return writeQuestions(filepath.Join(questionsOutDir, "2hop.json"), twoHop, log)
}

func writeQuestions(path string, qs []benchmark.Question, log *slog.Logger) error {
	generated := len(qs)
	if !questionsNoMerge {
		qs = benchmark.MergeAnswers(qs)
	}
	if err := benchmark.WriteJSONFile(path, qs); err != nil {
		return err
	}
	log.Info("wrote questions", "path", path, "generated", generated, "written", len(qs))
	return nil
}

// withOutput runs write against path, or stdout when path is empty.
func withOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	return writeFile(path, write)
}
