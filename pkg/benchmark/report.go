package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

var now = time.Now

const (
	heavyRule = "=================================================="
	lightRule = "--------------------------------------------------"
)

// WriteReport writes the plain-text summary of a run, one section per label
// in label order.
func WriteReport(w io.Writer, answerer string, summaries map[string]Summary) error {
	labels := sortedKeys(summaries)

	var b strings.Builder
	b.WriteString("BÁO CÁO KẾT QUẢ BENCHMARK (PHÂN LOẠI HOP)\n")
	if answerer != "" {
		fmt.Fprintf(&b, "Hệ thống: %s\n", answerer)
	}
	fmt.Fprintf(&b, "Thời gian chạy: %s\n", now().Format(time.ANSIC))
	b.WriteString(heavyRule + "\n\n")

	for i, label := range labels {
		s := summaries[label]
		if i > 0 {
			b.WriteString("\n" + lightRule + "\n\n")
		}
		fmt.Fprintf(&b, "%d. KẾT QUẢ %s (Số mẫu: %d)\n", i+1, strings.ToUpper(label), s.Count)
		fmt.Fprintf(&b, "   - BLEU Score    : %.4f\n", s.BLEU)
		fmt.Fprintf(&b, "   - ROUGE-L Score : %.4f\n", s.RougeL)
		fmt.Fprintf(&b, "   - METEOR Score  : %.4f\n", s.Meteor)
		fmt.Fprintf(&b, "   - Thời gian TB  : %.2fs\n", s.AvgSeconds)
		fmt.Fprintf(&b, "   - Số câu lỗi    : %d\n", s.Failed)
	}
	b.WriteString("\n" + heavyRule)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteZeroShotReport writes the short per-dataset summary used for
// baseline runs.
func WriteZeroShotReport(w io.Writer, name string, s Summary) error {
	_, err := fmt.Fprintf(w, "%s Zero-shot Results\nAverage inference time: %.2f seconds\n\nBLEU: %.4f\nROUGE-L: %.4f\nMETEOR: %.4f\n",
		name, s.AvgSeconds, s.BLEU, s.RougeL, s.Meteor)
	return err
}

// LogKey names the JSON section of a label: "1-hop" becomes "1_hop_data".
func LogKey(label string) string {
	return strings.ReplaceAll(label, "-", "_") + "_data"
}

// WriteLogJSON writes every entry, grouped by label under LogKey.
func WriteLogJSON(w io.Writer, logs map[string][]LogEntry) error {
	out := make(map[string][]LogEntry, len(logs))
	for label, entries := range logs {
		out[LogKey(label)] = entries
	}
	return WriteJSON(w, out)
}

// WriteJSON encodes v with a four-space indent, leaving non-ASCII and HTML
// characters unescaped.
func WriteJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}

// WriteJSONFile writes v to path with WriteJSON.
func WriteJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, v); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ReadJSONFile decodes a JSON array of T from path.
func ReadJSONFile[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return out, nil
}

// ResultRecord is one evaluated question in columnar form.
type ResultRecord struct {
	RunID       string  `parquet:"run_id"`
	Answerer    string  `parquet:"answerer"`
	Label       string  `parquet:"label"`
	Index       int32   `parquet:"index"`
	Question    string  `parquet:"question"`
	GroundTruth string  `parquet:"answer_ground_truth"`
	ModelAnswer string  `parquet:"answer_model"`
	BLEU        float64 `parquet:"bleu"`
	RougeL      float64 `parquet:"rouge"`
	Meteor      float64 `parquet:"meteor"`
	Seconds     float64 `parquet:"inference_seconds"`
	Failed      bool    `parquet:"failed"`
	ErrorKind   string  `parquet:"error_kind"`
}

// Records flattens logs into ResultRecords, labels in order.
func Records(runID, answerer string, logs map[string][]LogEntry) []ResultRecord {
	var out []ResultRecord
	for _, label := range sortedKeys(logs) {
		for i, e := range logs[label] {
			out = append(out, ResultRecord{
				RunID:       runID,
				Answerer:    answerer,
				Label:       label,
				Index:       int32(i),
				Question:    e.Question,
				GroundTruth: e.GroundTruth,
				ModelAnswer: e.ModelAnswer,
				BLEU:        e.Scores.BLEU,
				RougeL:      e.Scores.RougeL,
				Meteor:      e.Scores.Meteor,
				Seconds:     e.Seconds,
				Failed:      e.Failed,
				ErrorKind:   e.ErrorKind,
			})
		}
	}
	return out
}

// WriteParquet writes records as a parquet file to w.
func WriteParquet(w io.Writer, records []ResultRecord) error {
	pw := parquet.NewGenericWriter[ResultRecord](w)
	if _, err := pw.Write(records); err != nil {
		pw.Close()
		return fmt.Errorf("failed to write result rows: %w", err)
	}
	return pw.Close()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
