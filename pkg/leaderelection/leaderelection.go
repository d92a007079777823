// Package leaderelection asks the elector sidecar whether this instance is
// the leader.
package leaderelection

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-json"
)

const defaultRetries = 3

type Elector struct {
	electorURL string
	hostname   func() (string, error)
	client     *http.Client
	retries    int
	backoff    time.Duration
}

// New returns an Elector for the sidecar at electorPath. With an empty path
// every instance is the leader, which is what local runs want.
func New(electorPath string, client *http.Client) *Elector {
	url := ""
	if electorPath != "" {
		url = "http://" + electorPath
	}

	return &Elector{
		electorURL: url,
		hostname:   os.Hostname,
		client:     client,
		retries:    defaultRetries,
		backoff:    time.Second,
	}
}

func (e *Elector) IsLeader(ctx context.Context) (bool, error) {
	if e.electorURL == "" {
		return true, nil
	}

	hostname, err := e.hostname()
	if err != nil {
		return false, fmt.Errorf("getting hostname: %w", err)
	}

	leader, err := e.leader(ctx)
	if err != nil {
		return false, err
	}

	return hostname == leader, nil
}

func (e *Elector) leader(ctx context.Context) (string, error) {
	var lastErr error

	for i := 1; i <= e.retries; i++ {
		name, err := e.request(ctx)
		if err == nil {
			return name, nil
		}

		lastErr = err

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(e.backoff * time.Duration(i)):
		}
	}

	return "", fmt.Errorf("no response from elector after %d retries: %w", e.retries, lastErr)
}

func (e *Elector) request(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.electorURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var electorResponse struct {
		Name string `json:"name"`
	}

	err = json.NewDecoder(resp.Body).Decode(&electorResponse)
	if err != nil {
		return "", fmt.Errorf("decoding elector response: %w", err)
	}

	return electorResponse.Name, nil
}
