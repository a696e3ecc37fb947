package pinverify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	"go.uber.org/zap"
)

var ErrVerifierUnavailable = errors.New("pin_verifier_unavailable")

type httpVerifier struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

// NewHTTP verifies PINs against an external endpoint. The endpoint gets one
// retry on transport errors; a definitive 401 is never retried.
func NewHTTP(url string, timeout time.Duration, log *zap.Logger) Verifier {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &httpVerifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log.Named("pinverify.http"),
	}
}

func (v *httpVerifier) Verify(ctx context.Context, pin string) (Result, error) {
	body, err := json.Marshal(map[string]string{"pin": pin})
	if err != nil {
		return Result{}, err
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		result, retryable, err := v.post(ctx, body)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return Result{}, err
		}
		lastErr = err
	}

	v.log.Warn("pin verifier unreachable", zap.Error(lastErr))
	return Result{}, ErrVerifierUnavailable
}

func (v *httpVerifier) post(ctx context.Context, body []byte) (Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, true, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result Result
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return Result{}, false, err
		}
		return result, false, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{}, false, authdomain.ErrInvalidPIN
	default:
		return Result{}, true, fmt.Errorf("pin verifier returned %d", resp.StatusCode)
	}
}
