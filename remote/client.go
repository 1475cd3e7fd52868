package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Command is a DACP transport command.
type Command string

const (
	CommandPlayPause Command = "playpause"
	CommandPause     Command = "pause"
	CommandNext      Command = "nextitem"
	CommandPrevious  Command = "previtem"
)

const defaultRequestTimeout = 5 * time.Second

// Client sends commands to the current sender's remote-control service.
type Client struct {
	resolver Resolver
	http     *http.Client

	mu         sync.Mutex
	token      string
	id         string
	addr       string
	generation uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a client. A nil httpClient uses a 5 second timeout.
func NewClient(resolver Resolver, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		resolver: resolver,
		http:     httpClient,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// UpdateToken records the announced token and DACP-ID. A change forgets
// the resolved address and searches again in the background.
func (c *Client) UpdateToken(token, id string) {
	c.mu.Lock()
	if token == c.token && id == c.id {
		c.mu.Unlock()
		return
	}
	c.token, c.id, c.addr = token, id, ""
	c.generation++
	generation := c.generation
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Client.UpdateToken",
		"dacp_id":  id,
	}).Info("Remote token updated")

	if c.ctx.Err() != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.resolve(c.ctx, id, generation); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Client.UpdateToken",
				"dacp_id":  id,
				"error":    err.Error(),
			}).Debug("Background remote search failed")
		}
	}()
}

// Target returns the resolved address and the current token.
func (c *Client) Target() (addr, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr, c.token
}

// Send issues cmd, searching first if the service is not yet resolved.
func (c *Client) Send(ctx context.Context, cmd Command) error {
	if c.ctx.Err() != nil {
		return ErrClientClosed
	}

	c.mu.Lock()
	token, id, addr, generation := c.token, c.id, c.addr, c.generation
	c.mu.Unlock()

	if token == "" || id == "" {
		return ErrNoRemote
	}
	if addr == "" {
		var err error
		if addr, err = c.resolve(ctx, id, generation); err != nil {
			return err
		}
	}

	url := fmt.Sprintf("http://%s/ctrl-int/1/%s", addr, cmd)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", cmd, err)
	}
	req.Header.Set("Active-Remote", token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.forget(generation)
		return fmt.Errorf("send %s: %w", cmd, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	logger := logrus.WithFields(logrus.Fields{
		"function": "Client.Send",
		"command":  string(cmd),
		"addr":     addr,
		"status":   resp.StatusCode,
	})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("Remote rejected command")
		return fmt.Errorf("%w: %s returned %d", ErrCommandFailed, cmd, resp.StatusCode)
	}
	logger.Debug("Remote command sent")
	return nil
}

// Close stops background searches.
func (c *Client) Close() error {
	c.cancel()
	c.wg.Wait()
	return nil
}

// resolve looks up id and stores the address if the token has not changed
// in the meantime.
func (c *Client) resolve(ctx context.Context, id string, generation uint64) (string, error) {
	if c.resolver == nil {
		return "", fmt.Errorf("%w: no resolver", ErrNotFound)
	}
	addr, err := c.resolver.Resolve(ctx, id)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.generation == generation {
		c.addr = addr
	}
	c.mu.Unlock()
	return addr, nil
}

// forget drops a resolved address that stopped answering.
func (c *Client) forget(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == generation {
		c.addr = ""
	}
}
