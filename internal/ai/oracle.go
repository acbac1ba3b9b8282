package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-support/internal/config"
)

// Oracle is the capability interface for the external text-completion
// service. It is treated as unreliable and optional: callers must have a
// deterministic fallback for every use.
type Oracle interface {
	Complete(ctx context.Context, prompt, purpose string) (string, error)
}

const oracleTimeout = 10 * time.Second

// NewOracle selects the implementation once from configuration presence:
// the HTTP client when base URL and key are set, otherwise the disabled
// no-op. Business logic never re-checks configuration.
func NewOracle(cfg config.AIConfig, logger *zap.Logger) Oracle {
	if !cfg.Enabled() {
		return disabledOracle{logger: logger}
	}
	return &httpOracle{
		base:   cfg.APIBase,
		key:    cfg.APIKey,
		client: &http.Client{Timeout: oracleTimeout},
		logger: logger,
	}
}

type httpOracle struct {
	base   string
	key    string
	client *http.Client
	logger *zap.Logger
}

type oracleRequest struct {
	Input   string `json:"input"`
	Purpose string `json:"purpose"`
}

type oracleResponse struct {
	Result string `json:"result"`
	Text   string `json:"text"`
}

// Complete performs a single attempt against the oracle; no retries.
func (o *httpOracle) Complete(ctx context.Context, prompt, purpose string) (string, error) {
	body, err := json.Marshal(oracleRequest{Input: prompt, Purpose: purpose})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+o.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		o.logger.Warn("oracle call failed", zap.String("purpose", purpose), zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		o.logger.Warn("oracle call failed", zap.String("purpose", purpose), zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var payload oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		o.logger.Warn("oracle payload malformed", zap.String("purpose", purpose), zap.Error(err))
		return "", err
	}

	text := payload.Result
	if text == "" {
		text = payload.Text
	}
	if text == "" {
		return "", errors.New("oracle returned empty result")
	}
	o.logger.Info("oracle call succeeded", zap.String("purpose", purpose))
	return text, nil
}

// ErrOracleDisabled is returned when no oracle is configured.
var ErrOracleDisabled = errors.New("oracle not configured")

type disabledOracle struct {
	logger *zap.Logger
}

func (o disabledOracle) Complete(_ context.Context, _, purpose string) (string, error) {
	if o.logger != nil {
		o.logger.Info("oracle call skipped", zap.String("purpose", purpose), zap.String("reason", "not configured"))
	}
	return "", ErrOracleDisabled
}
