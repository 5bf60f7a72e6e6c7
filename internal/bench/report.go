package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// Report file names written by WriteReport.
const (
	ReportFile  = "model_comparison_report.md"
	DetailsFile = "detailed_results.json"
)

var reportFuncs = template.FuncMap{
	"upper":         strings.ToUpper,
	"pct":           func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"round":         func(f float64) string { return fmt.Sprintf("%.0f", f) },
	"isCompleted":   func(s Status) bool { return s == StatusCompleted },
	"isFailedStart": func(s Status) bool { return s == StatusFailedToStart },
	"counts": func(r ModelResult) string {
		ok, total := r.Counts()
		return fmt.Sprintf("%d/%d", ok, total)
	},
	"orUnknown": func(s string) string {
		if s == "" {
			return "Unknown error"
		}
		return s
	},
}

var reportTmpl = template.Must(template.New("report").Funcs(reportFuncs).Parse(`# Model Comparison Report

## Test Overview

**Date**: {{ .Date }}
**VRAM Budget**: {{ .VRAMBudgetGB }}GB
**Models Tested**: {{ len .Results }}

## Model Performance Summary

{{ range .Results -}}
### {{ upper .ModelName }}

{{ if isCompleted .Status -}}
{{ with .ModelConfig -}}
- **VRAM**: {{ .VRAMEstimateGB }}GB
- **Context**: {{ .ContextSize }}
- **Description**: {{ .Description }}
{{ end -}}
{{ if .CreativeTests -}}
- **Creative Tests**: {{ counts . }} ({{ pct .SuccessRate }}%)
- **Avg Output Length**: {{ round .AverageWords }} words
{{ end -}}
- **Status**: Completed
{{ else if isFailedStart .Status -}}
- **Status**: Failed to start
{{ else -}}
- **Status**: Error - {{ orUnknown .Error }}
{{ end }}
{{ end -}}

## Detailed Test Results

{{ range .Results -}}
{{ if and (isCompleted .Status) .CreativeTests -}}
### {{ upper .ModelName }} - Creative Writing Tests

{{ range .CreativeTests.TestResults -}}
**{{ .TestName }}** {{ if .Success }}[ok]{{ else }}[failed]{{ end }}
{{ if .Success -}}
- Word count: {{ .WordCount }}
- Evaluation: {{ .EvaluationNotes }}
{{ else -}}
- Error: {{ .Response }}
{{ end }}
{{ end -}}
{{ end -}}
{{ end -}}
`))

type reportData struct {
	Date         string
	VRAMBudgetGB int
	Results      []ModelResult
}

// RenderReport returns the Markdown comparison report.
func RenderReport(results []ModelResult, now time.Time, vramBudgetGB int) (string, error) {
	var b strings.Builder
	err := reportTmpl.Execute(&b, reportData{
		Date:         now.Format(time.RFC1123),
		VRAMBudgetGB: vramBudgetGB,
		Results:      results,
	})
	return b.String(), err
}

// WriteReport writes the Markdown summary and the JSON details into dir,
// creating it if needed.
func WriteReport(dir string, results []ModelResult, now time.Time, vramBudgetGB int) (reportPath, detailsPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	md, err := RenderReport(results, now, vramBudgetGB)
	if err != nil {
		return "", "", fmt.Errorf("render report: %w", err)
	}
	reportPath = filepath.Join(dir, ReportFile)
	if err := os.WriteFile(reportPath, []byte(md), 0o644); err != nil {
		return "", "", err
	}
	js, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", "", err
	}
	detailsPath = filepath.Join(dir, DetailsFile)
	if err := os.WriteFile(detailsPath, append(js, '\n'), 0o644); err != nil {
		return "", "", err
	}
	return reportPath, detailsPath, nil
}
