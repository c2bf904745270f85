package models

import "time"

// Pipeline stage names.
const (
	StepScreen   = "screen"
	StepBacktest = "backtest"
	StepNotify   = "notify"
)

// StepResult records the outcome of one pipeline stage.
type StepResult struct {
	Name      string        `json:"name"`
	Success   bool          `json:"success"`
	Skipped   bool          `json:"skipped,omitempty"`
	Error     string        `json:"error,omitempty"`
	Count     int           `json:"count"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// RunSummary is handed to the notification sink together with the ranked scenarios.
type RunSummary struct {
	RunID         string            `json:"run_id"`
	Date          string            `json:"date"`
	StartedAt     time.Time         `json:"started_at"`
	Duration      time.Duration     `json:"duration_ns"`
	Screened      int               `json:"screened"`
	Analyzed      int               `json:"analyzed"`
	Profitable    int               `json:"profitable"`
	Synthetic     int               `json:"synthetic"`
	FailedTickers map[string]string `json:"failed_tickers,omitempty"`
}

// PipelineResult is the full, possibly partial, output of one orchestrator run.
type PipelineResult struct {
	Success    bool                   `json:"success"`
	FailedStep string                 `json:"failed_step,omitempty"`
	Steps      map[string]*StepResult `json:"steps"`
	Signals    []ActivitySignal       `json:"signals,omitempty"`
	Backtests  []BacktestResult       `json:"backtests,omitempty"`
	Profitable []BacktestResult       `json:"profitable,omitempty"`
	Delivered  bool                   `json:"delivered"`
	Summary    RunSummary             `json:"summary"`
}

// NotifyResult is the outcome reported by a notification sink.
type NotifyResult struct {
	Delivered bool   `json:"delivered"`
	Channel   string `json:"channel,omitempty"`
}

// IngestReport lists the per-ticker outcome of an ingest run.
type IngestReport struct {
	Dates     []string          `json:"dates"`
	Tickers   int               `json:"tickers"`
	Trades    int64             `json:"trades"`
	DarkPool  int64             `json:"dark_pool_trades"`
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"`
}
