package leaderelection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElector_IsLeader(t *testing.T) {
	testCases := []struct {
		name      string
		response  string
		status    int
		hostname  string
		expect    bool
		expectErr bool
	}{
		{
			name:     "this pod is leader",
			response: `{"name":"tablesync-abc"}`,
			status:   http.StatusOK,
			hostname: "tablesync-abc",
			expect:   true,
		},
		{
			name:     "another pod is leader",
			response: `{"name":"tablesync-def"}`,
			status:   http.StatusOK,
			hostname: "tablesync-abc",
			expect:   false,
		},
		{
			name:      "elector failing",
			status:    http.StatusInternalServerError,
			hostname:  "tablesync-abc",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.response))
			}))
			defer server.Close()

			e := New(strings.TrimPrefix(server.URL, "http://"), server.Client())
			e.hostname = func() (string, error) { return tc.hostname, nil }
			e.backoff = time.Millisecond

			got, err := e.IsLeader(context.Background())
			if tc.expectErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestElector_NoElector(t *testing.T) {
	got, err := New("", http.DefaultClient).IsLeader(context.Background())
	require.NoError(t, err)
	assert.True(t, got)
}
