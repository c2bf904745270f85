package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"DarkPull/internal/domain/models"
	drepo "DarkPull/internal/domain/repository"
	xhttp "DarkPull/pkg/http"
	applogger "DarkPull/pkg/logger"
	"DarkPull/pkg/retry"
)

// WebhookSink posts the ranked scenarios and run summary as JSON.
type WebhookSink struct {
	client  *xhttp.Client
	url     string
	headers map[string]string
	policy  retry.Policy
	max     int
}

type webhookPayload struct {
	Summary   models.RunSummary       `json:"summary"`
	Scenarios []models.BacktestResult `json:"scenarios"`
	Text      string                  `json:"text"`
}

func NewWebhookSink(url string, headers map[string]string, timeout time.Duration, policy retry.Policy, max int) *WebhookSink {
	return &WebhookSink{
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		url:     url,
		headers: headers,
		policy:  policy,
		max:     max,
	}
}

func (s *WebhookSink) Notify(ctx context.Context, scenarios []models.BacktestResult, summary models.RunSummary) (models.NotifyResult, error) {
	if s.max > 0 && len(scenarios) > s.max {
		scenarios = scenarios[:s.max]
	}
	payload := webhookPayload{Summary: summary, Scenarios: scenarios, Text: Digest(scenarios, summary)}

	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodPost,
			URL:     s.url,
			Headers: s.headers,
			Body:    payload,
		}, nil)
		var se *xhttp.StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return models.NotifyResult{Channel: "webhook"}, fmt.Errorf("webhook: %w", err)
	}
	return models.NotifyResult{Delivered: true, Channel: "webhook"}, nil
}

// LogSink writes the digest to the application log. It never fails and
// reports delivered=false so callers can tell nothing left the process.
type LogSink struct {
	l *applogger.Logger
}

func NewLogSink(l *applogger.Logger) *LogSink {
	return &LogSink{l: l}
}

func (s *LogSink) Notify(_ context.Context, scenarios []models.BacktestResult, summary models.RunSummary) (models.NotifyResult, error) {
	s.l.Info("pipeline digest",
		applogger.String("run_id", summary.RunID),
		applogger.String("date", summary.Date),
		applogger.Int("profitable", len(scenarios)),
		applogger.String("text", Digest(scenarios, summary)),
	)
	return models.NotifyResult{Delivered: false, Channel: "log"}, nil
}

// MultiSink fans out to every sink. It is delivered when any sink delivered.
// Every sink is tried; any sink error is returned joined with the others.
type MultiSink struct {
	sinks   []drepo.NotificationSink
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewMultiSink(metrics drepo.Metrics, l *applogger.Logger, sinks ...drepo.NotificationSink) *MultiSink {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &MultiSink{sinks: sinks, metrics: metrics, l: l.With("notify")}
}

func (m *MultiSink) Notify(ctx context.Context, scenarios []models.BacktestResult, summary models.RunSummary) (models.NotifyResult, error) {
	var (
		out      models.NotifyResult
		channels []string
		errs     []error
	)
	for _, s := range m.sinks {
		res, err := s.Notify(ctx, scenarios, summary)
		m.metrics.RecordNotification(res.Channel, err == nil && res.Delivered)
		if err != nil {
			m.l.Error("notification sink failed",
				applogger.String("channel", res.Channel),
				applogger.String("run_id", summary.RunID),
				applogger.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		if res.Delivered {
			out.Delivered = true
			channels = append(channels, res.Channel)
		}
	}
	out.Channel = strings.Join(channels, ",")
	return out, errors.Join(errs...)
}

// Digest renders a short human summary of a run.
func Digest(scenarios []models.BacktestResult, summary models.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dark pool run %s: %d screened, %d analyzed, %d profitable",
		summary.Date, summary.Screened, summary.Analyzed, len(scenarios))
	for i, r := range scenarios {
		fmt.Fprintf(&b, "\n%d. %s strike %.2f premium %.2f: %.1f%% in zone (%d samples, %s, %s)",
			i+1, r.Scenario.Ticker, r.Scenario.StrikePrice, r.Scenario.TotalPremium,
			r.ProfitableRate, r.TotalSamples, r.DataQuality, r.Source)
	}
	return b.String()
}
