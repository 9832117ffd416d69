package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cxc-ai/catalog-bot/internal/config"
	"github.com/cxc-ai/catalog-bot/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertProviderFailureRate AlertType = "provider_failure_rate"
	AlertProviderScoreGap    AlertType = "provider_score_gap"
	AlertCircuitOpen         AlertType = "circuit_open"
)

// minRequestsForAlert keeps low-traffic providers from tripping the
// failure-rate alert on a single bad call.
const minRequestsForAlert = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	for name, stats := range snap.Providers {
		if stats == nil || stats.TotalRequests < minRequestsForAlert {
			continue
		}
		failRate := float64(stats.FailedRequests) / float64(stats.TotalRequests)
		if failRate > a.cfg.FailureRateThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertProviderFailureRate,
				Severity: "high",
				Message: fmt.Sprintf(
					"Provider %s failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d total)",
					name, failRate*100, a.cfg.FailureRateThreshold*100,
					stats.FailedRequests, stats.TotalRequests,
				),
				Details: map[string]any{
					"provider":     name,
					"failure_rate": failRate,
					"threshold":    a.cfg.FailureRateThreshold,
					"failed":       stats.FailedRequests,
					"total":        stats.TotalRequests,
				},
				Timestamp: now,
			})
		}
	}

	if alert := a.scoreGapAlert(snap, now); alert != nil {
		alerts = append(alerts, *alert)
	}

	for service, state := range snap.Breakers {
		if state != resilience.CircuitOpen {
			continue
		}
		alerts = append(alerts, Alert{
			Type:     AlertCircuitOpen,
			Severity: "high",
			Message:  fmt.Sprintf("Circuit breaker for %s is open; calls are being short-circuited", service),
			Details: map[string]any{
				"service": service,
				"state":   state.String(),
			},
			Timestamp: now,
		})
	}

	return alerts
}

// scoreGapAlert fires when the best and worst active providers drift
// more than the configured gap apart, a sign one of them degraded.
func (a *Alerter) scoreGapAlert(snap *MetricsSnapshot, now time.Time) *Alert {
	gap := a.cfg.ScoreGapThreshold
	if gap <= 0 {
		gap = 20
	}

	cmp := Compare(snap.Providers)
	var active []ProviderScore
	for _, s := range cmp.Scores {
		if s.TotalRequests >= minRequestsForAlert {
			active = append(active, s)
		}
	}
	if len(active) < 2 {
		return nil
	}

	best, worst := active[0], active[len(active)-1]
	if best.Score-worst.Score <= gap {
		return nil
	}
	return &Alert{
		Type:     AlertProviderScoreGap,
		Severity: "medium",
		Message: fmt.Sprintf(
			"Provider %s (score %.1f) is outperforming %s (score %.1f) by more than %.0f points",
			best.Provider, best.Score, worst.Provider, worst.Score, gap,
		),
		Details: map[string]any{
			"best":        best.Provider,
			"best_score":  best.Score,
			"worst":       worst.Provider,
			"worst_score": worst.Score,
			"gap":         best.Score - worst.Score,
		},
		Timestamp: now,
	}
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
