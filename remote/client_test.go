package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	mu    sync.Mutex
	addr  string
	err   error
	calls []string
}

func (m *mockResolver) Resolve(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
	return m.addr, m.err
}

func (m *mockResolver) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type recordedRequest struct {
	path  string
	token string
}

func newRemoteServer(t *testing.T, status int) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var got []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, recordedRequest{path: r.URL.Path, token: r.Header.Get("Active-Remote")})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), got...)
	}
}

func TestClientSendCommands(t *testing.T) {
	srv, requests := newRemoteServer(t, http.StatusNoContent)
	resolver := &mockResolver{addr: strings.TrimPrefix(srv.URL, "http://")}
	c := NewClient(resolver, nil)
	defer c.Close()

	c.UpdateToken("1986535575", "14413BE4996FEA4D")

	tests := []struct {
		cmd  Command
		path string
	}{
		{CommandPlayPause, "/ctrl-int/1/playpause"},
		{CommandPause, "/ctrl-int/1/pause"},
		{CommandNext, "/ctrl-int/1/nextitem"},
		{CommandPrevious, "/ctrl-int/1/previtem"},
	}
	for _, tt := range tests {
		t.Run(string(tt.cmd), func(t *testing.T) {
			require.NoError(t, c.Send(context.Background(), tt.cmd))
			got := requests()
			require.NotEmpty(t, got)
			last := got[len(got)-1]
			assert.Equal(t, tt.path, last.path)
			assert.Equal(t, "1986535575", last.token)
		})
	}
}

func TestClientSendWithoutToken(t *testing.T) {
	c := NewClient(&mockResolver{}, nil)
	defer c.Close()
	assert.ErrorIs(t, c.Send(context.Background(), CommandPause), ErrNoRemote)
}

func TestNewClientHTTPTimeout(t *testing.T) {
	custom := &http.Client{Timeout: time.Second}
	tests := []struct {
		name    string
		client  *http.Client
		timeout time.Duration
	}{
		{"nil uses default", nil, defaultRequestTimeout},
		{"custom kept", custom, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(&mockResolver{}, tt.client)
			defer c.Close()
			require.NotNil(t, c.http)
			assert.Equal(t, tt.timeout, c.http.Timeout)
			if tt.client != nil {
				assert.Same(t, tt.client, c.http)
			}
		})
	}
}

func TestClientSendResolvesFirst(t *testing.T) {
	srv, requests := newRemoteServer(t, http.StatusOK)
	resolver := &mockResolver{err: ErrNotFound}
	c := NewClient(resolver, nil)
	defer c.Close()

	c.UpdateToken("token", "ID")
	require.Eventually(t, func() bool { return resolver.callCount() == 1 }, time.Second, 5*time.Millisecond)

	err := c.Send(context.Background(), CommandNext)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, resolver.callCount(), "command retries the search")

	resolver.mu.Lock()
	resolver.addr, resolver.err = strings.TrimPrefix(srv.URL, "http://"), nil
	resolver.mu.Unlock()

	require.NoError(t, c.Send(context.Background(), CommandNext))
	assert.Len(t, requests(), 1)

	addr, token := c.Target()
	assert.Equal(t, strings.TrimPrefix(srv.URL, "http://"), addr)
	assert.Equal(t, "token", token)
}

func TestClientUpdateTokenResearches(t *testing.T) {
	resolver := &mockResolver{addr: "127.0.0.1:1"}
	c := NewClient(resolver, nil)
	defer c.Close()

	c.UpdateToken("a", "ID1")
	require.Eventually(t, func() bool { addr, _ := c.Target(); return addr != "" }, time.Second, 5*time.Millisecond)

	resolver.mu.Lock()
	resolver.err = ErrNotFound
	resolver.mu.Unlock()

	c.UpdateToken("a", "ID1")
	c.UpdateToken("b", "ID2")
	addr, token := c.Target()
	assert.Equal(t, "b", token)
	assert.Empty(t, addr, "token change forgets the old address")

	require.Eventually(t, func() bool { return resolver.callCount() == 2 }, time.Second, 5*time.Millisecond)
	addr, _ = c.Target()
	assert.Empty(t, addr)
	resolver.mu.Lock()
	assert.Equal(t, []string{"ID1", "ID2"}, resolver.calls)
	resolver.mu.Unlock()
}

func TestClientCommandRejected(t *testing.T) {
	srv, _ := newRemoteServer(t, http.StatusForbidden)
	c := NewClient(&mockResolver{addr: strings.TrimPrefix(srv.URL, "http://")}, nil)
	defer c.Close()

	c.UpdateToken("t", "ID")
	assert.ErrorIs(t, c.Send(context.Background(), CommandPause), ErrCommandFailed)
}

func TestClientUnreachableForgetsAddress(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	resolver := &mockResolver{addr: addr}
	c := NewClient(resolver, &http.Client{Timeout: time.Second})
	defer c.Close()

	c.UpdateToken("t", "ID")
	require.Eventually(t, func() bool { a, _ := c.Target(); return a != "" }, time.Second, 5*time.Millisecond)

	err := c.Send(context.Background(), CommandPause)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCommandFailed))

	a, _ := c.Target()
	assert.Empty(t, a)
}

func TestClientClosed(t *testing.T) {
	c := NewClient(&mockResolver{}, nil)
	require.NoError(t, c.Close())
	c.UpdateToken("t", "ID")
	assert.ErrorIs(t, c.Send(context.Background(), CommandPause), ErrClientClosed)
}
