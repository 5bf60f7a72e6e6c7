package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"plotbench/internal/supervisor"
	"plotbench/pkg/types"
)

// Status of one model run.
type Status string

const (
	StatusCompleted     Status = "completed"
	StatusFailedToStart Status = "failed_to_start"
	StatusError         Status = "error"
)

// TestResult is the outcome of one scenario.
type TestResult struct {
	TestName        string `json:"test_name"`
	Prompt          string `json:"prompt"`
	Response        string `json:"response"`
	WordCount       int    `json:"word_count"`
	Success         bool   `json:"success"`
	EvaluationNotes string `json:"evaluation_notes"`
	PromptRotated   bool   `json:"prompt_rotated,omitempty"`
}

// CreativeTests groups the scenario results of one model.
type CreativeTests struct {
	ModelName   string       `json:"model_name"`
	TestResults []TestResult `json:"test_results"`
}

// ModelResult is the full record of one model run.
type ModelResult struct {
	ModelName     string             `json:"model_name"`
	Status        Status             `json:"status"`
	ModelConfig   *types.ModelConfig `json:"model_config,omitempty"`
	CreativeTests *CreativeTests     `json:"creative_tests,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// Counts returns successful and total scenario counts.
func (r ModelResult) Counts() (ok, total int) {
	if r.CreativeTests == nil {
		return 0, 0
	}
	for _, t := range r.CreativeTests.TestResults {
		if t.Success {
			ok++
		}
	}
	return ok, len(r.CreativeTests.TestResults)
}

// SuccessRate is the percentage of successful scenarios, 0 when none ran.
func (r ModelResult) SuccessRate() float64 {
	ok, total := r.Counts()
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total) * 100
}

// AverageWords is the mean word count over successful scenarios.
func (r ModelResult) AverageWords() float64 {
	if r.CreativeTests == nil {
		return 0
	}
	sum, n := 0, 0
	for _, t := range r.CreativeTests.TestResults {
		if t.Success {
			sum += t.WordCount
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// Server is the supervisor surface the runner drives.
type Server interface {
	Start(ctx context.Context, model string, port int) (supervisor.ServerHandle, error)
	Stop() error
	Chat(ctx context.Context, req types.ChatRequest) (types.ChatResult, error)
}

// PromptSource supplies the system prompt for each interaction.
type PromptSource interface {
	CurrentPrompt() string
	Increment() bool
}

// Runner tests models one at a time.
type Runner struct {
	Server    Server
	Prompts   PromptSource
	Scenarios []Scenario
	Port      int
	// Pause between models.
	Pause time.Duration
	Log   zerolog.Logger
}

// RunModel starts name, runs every scenario and always stops the server.
func (r *Runner) RunModel(ctx context.Context, name string) ModelResult {
	log := r.Log.With().Str("model", name).Logger()
	h, err := r.Server.Start(ctx, name, r.Port)
	if err != nil {
		log.Error().Err(err).Msg("failed to start")
		return ModelResult{ModelName: name, Status: StatusFailedToStart, Error: err.Error()}
	}
	defer func() {
		if err := r.Server.Stop(); err != nil {
			log.Warn().Err(err).Msg("stop after run")
		}
	}()

	cfg := h.Model
	res := ModelResult{
		ModelName:     name,
		Status:        StatusCompleted,
		ModelConfig:   &cfg,
		CreativeTests: &CreativeTests{ModelName: name},
	}
	scenarios := r.Scenarios
	if len(scenarios) == 0 {
		scenarios = DefaultScenarios()
	}
	for i, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			res.Status = StatusError
			res.Error = err.Error()
			break
		}
		tr := r.runScenario(ctx, name, sc)
		res.CreativeTests.TestResults = append(res.CreativeTests.TestResults, tr)
		ev := log.Info()
		if !tr.Success {
			ev = log.Warn()
		}
		ev.Int("test", i+1).Int("of", len(scenarios)).Str("scenario", sc.Name).Int("words", tr.WordCount).Bool("success", tr.Success).Msg("scenario finished")
	}
	ok, total := res.Counts()
	log.Info().Int("ok", ok).Int("total", total).Float64("success_rate", res.SuccessRate()).Msg("creative tests done")
	return res
}

func (r *Runner) runScenario(ctx context.Context, model string, sc Scenario) TestResult {
	var msgs []types.ChatMessage
	if r.Prompts != nil {
		msgs = append(msgs, types.ChatMessage{Role: "system", Content: r.Prompts.CurrentPrompt()})
	}
	msgs = append(msgs, types.ChatMessage{Role: "user", Content: sc.Prompt})
	temp := sc.Temperature
	out, err := r.Server.Chat(ctx, types.ChatRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   sc.MaxTokens,
		Temperature: &temp,
	})
	tr := TestResult{TestName: sc.Name, Prompt: sc.Prompt}
	if r.Prompts != nil {
		tr.PromptRotated = r.Prompts.Increment()
	}
	if err != nil {
		var rerr *supervisor.RequestError
		if errors.As(err, &rerr) && rerr.StatusCode != 0 {
			tr.Response = fmt.Sprintf("HTTP Error %d", rerr.StatusCode)
			tr.EvaluationNotes = fmt.Sprintf("Server error: %d", rerr.StatusCode)
		} else {
			tr.Response = "Error: " + err.Error()
			tr.EvaluationNotes = "Exception: " + err.Error()
		}
		return tr
	}
	tr.Response = out.Content
	tr.WordCount = out.WordCount
	tr.Success = true
	tr.EvaluationNotes = sc.EvaluationNotes
	return tr
}

// Run tests every model in order, pausing between models.
func (r *Runner) Run(ctx context.Context, models []string) []ModelResult {
	out := make([]ModelResult, 0, len(models))
	for i, m := range models {
		r.Log.Info().Int("progress", i+1).Int("of", len(models)).Str("model", m).Msg("testing model")
		out = append(out, r.RunModel(ctx, m))
		if i < len(models)-1 && r.Pause > 0 {
			select {
			case <-time.After(r.Pause):
			case <-ctx.Done():
				return out
			}
		}
	}
	return out
}
