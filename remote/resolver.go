package remote

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/libp2p/zeroconf/v2"
	"github.com/sirupsen/logrus"
)

const (
	// ServiceType is the DNS-SD type remote-control services publish.
	ServiceType = "_dacp._tcp"

	// DefaultBrowseTimeout bounds one search.
	DefaultBrowseTimeout = 5 * time.Second
)

// Resolver finds the host:port of the remote service for a DACP-ID.
type Resolver interface {
	Resolve(ctx context.Context, id string) (string, error)
}

// ZeroconfResolver browses the local network with multicast DNS.
type ZeroconfResolver struct {
	Domain  string
	Timeout time.Duration
}

// NewZeroconfResolver returns a resolver for the "local." domain.
func NewZeroconfResolver() *ZeroconfResolver {
	return &ZeroconfResolver{Domain: "local.", Timeout: DefaultBrowseTimeout}
}

// Resolve browses until an instance whose name contains id answers, the
// timeout passes, or ctx ends.
func (r *ZeroconfResolver) Resolve(ctx context.Context, id string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 8)
	browseErr := make(chan error, 1)
	go func() {
		browseErr <- zeroconf.Browse(ctx, ServiceType, r.Domain, entries)
	}()

	errs := browseErr
	for {
		select {
		case err := <-errs:
			if err != nil {
				return "", r.finish(err, id)
			}
			errs = nil
		case entry, ok := <-entries:
			if !ok {
				return "", r.finish(nil, id)
			}
			if addr, match := matchEntry(entry, id); match {
				logrus.WithFields(logrus.Fields{
					"function": "ZeroconfResolver.Resolve",
					"dacp_id":  id,
					"instance": entry.Instance,
					"addr":     addr,
				}).Info("Resolved remote control service")
				return addr, nil
			}
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
}

func (r *ZeroconfResolver) finish(err error, id string) error {
	if err != nil {
		return fmt.Errorf("browse %s: %w", ServiceType, err)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// matchEntry reports whether entry belongs to id and returns its address.
// IPv4 is preferred, then IPv6, then the host name.
func matchEntry(entry *zeroconf.ServiceEntry, id string) (string, bool) {
	if entry == nil || id == "" {
		return "", false
	}
	if !strings.Contains(strings.ToUpper(entry.Instance), strings.ToUpper(id)) {
		return "", false
	}

	var host string
	switch {
	case len(entry.AddrIPv4) > 0:
		host = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		host = entry.AddrIPv6[0].String()
	case entry.HostName != "":
		host = strings.TrimSuffix(entry.HostName, ".")
	default:
		return "", false
	}
	return net.JoinHostPort(host, strconv.Itoa(entry.Port)), true
}
