package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ariebrainware/measurement-gateway/util"
	"go.uber.org/zap"
)

// Scorer classifies a feature record as 0 (low risk) or 1 (high risk).
type Scorer interface {
	Score(ctx context.Context, f Features) (int, error)
}

// Client posts feature records to the scoring model over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

func NewClient(url string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (c *Client) Score(ctx context.Context, f Features) (int, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return 0, fmt.Errorf("marshal features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create scoring request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warnw("scoring service unreachable", "url", c.url, "error", err)
		return 0, util.WrapError(util.ErrPredictionUnavailable, "%v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return 0, util.WrapError(util.ErrPredictionUnavailable, "read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warnw("scoring service failed", "url", c.url, "status", resp.StatusCode)
		return 0, util.WrapError(util.ErrPredictionUnavailable, "status %d", resp.StatusCode)
	}

	score, err := ParseScore(raw)
	if err != nil {
		c.log.Warnw("scoring response not understood", "url", c.url, "body", string(raw))
		return 0, err
	}
	return score, nil
}

type scoreResponse struct {
	Version    string `json:"version,omitempty"`
	Prediction *int   `json:"prediction"`
}

// ParseScore reads a scoring response. A JSON object with an integer
// "prediction" field is preferred. Otherwise the second character of the
// body is taken as the result, which is how the first model version answered
// (for example "[1]").
func ParseScore(body []byte) (int, error) {
	var resp scoreResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Prediction != nil {
		return checkScore(*resp.Prediction)
	}

	s := string(body)
	if len(s) < 2 {
		return 0, util.WrapError(util.ErrPredictionMalformed, "response too short: %q", s)
	}
	n, err := strconv.Atoi(s[1:2])
	if err != nil {
		return 0, util.WrapError(util.ErrPredictionMalformed, "response %q: %v", s, errors.Unwrap(err))
	}
	return checkScore(n)
}

func checkScore(n int) (int, error) {
	if n != 0 && n != 1 {
		return 0, util.WrapError(util.ErrPredictionMalformed, "prediction %d is not 0 or 1", n)
	}
	return n, nil
}
