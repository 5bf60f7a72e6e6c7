package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReadResults loads a detailed_results.json file.
func ReadResults(path string) ([]ModelResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []ModelResult
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// ExportMarkdown renders one Markdown document per model result, with the
// full prompt and response of every scenario.
func ExportMarkdown(results []ModelResult, now time.Time) []string {
	docs := make([]string, 0, len(results))
	for _, r := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "# Basic Export %s\n\n", now.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "Model: %s\n", r.ModelName)
		fmt.Fprintf(&b, "Status: %s\n", r.Status)
		if c := r.ModelConfig; c != nil {
			fmt.Fprintf(&b, "Model Config: id=%s file=%s template=%s vram=%dGB context=%d\n",
				c.ID, c.File, c.Template, c.VRAMEstimateGB, c.ContextSize)
		}
		if r.Error != "" {
			fmt.Fprintf(&b, "Error: %s\n", r.Error)
		}
		if r.CreativeTests != nil {
			b.WriteString("\n## Creative Tests\n\n")
			for _, t := range r.CreativeTests.TestResults {
				fmt.Fprintf(&b, "### %s\n\n", t.TestName)
				fmt.Fprintf(&b, "#### Prompt\n\n%s\n\n", t.Prompt)
				fmt.Fprintf(&b, "#### Response\n\n%s\n\n", t.Response)
				fmt.Fprintf(&b, "Word count: %d\n", t.WordCount)
				fmt.Fprintf(&b, "Success: %t\n", t.Success)
				fmt.Fprintf(&b, "Evaluation notes: %s\n", t.EvaluationNotes)
			}
		}
		docs = append(docs, b.String())
	}
	return docs
}

// ExportFile converts the JSON results at jsonPath into a single Markdown
// file results_<HHMMSS>.md under outDir and returns its path.
func ExportFile(jsonPath, outDir string, now time.Time) (string, error) {
	results, err := ReadResults(jsonPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, "results_"+now.Format("150405")+".md")
	content := strings.Join(ExportMarkdown(results, now), "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
