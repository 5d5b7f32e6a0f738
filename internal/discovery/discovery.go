// Package discovery advertises and finds piano-app servers on the
// local network over mDNS.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/grandcat/zeroconf"
)

const (
	service = "_piano-app._tcp"
	domain  = "local."
)

// Advertise registers the server on the LAN until ctx is cancelled.
func Advertise(ctx context.Context, instance string, port int) error {
	server, err := zeroconf.Register(instance, service, domain, port, nil, nil)
	if nil != err {
		return fmt.Errorf("unable to register mdns service: %w", err)
	}
	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()
	return nil
}

// Lookup browses for a server and returns the first address found.
func Lookup(ctx context.Context) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if nil != err {
		return "", fmt.Errorf("unable to create mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 8)
	if err := resolver.Browse(ctx, service, domain, entries); nil != err {
		return "", fmt.Errorf("unable to browse mdns: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", errors.New("no server found on the local network")
		case entry, ok := <-entries:
			if !ok {
				return "", errors.New("no server found on the local network")
			}
			if len(entry.AddrIPv4) == 0 {
				continue
			}
			return fmt.Sprintf("http://%s:%d", entry.AddrIPv4[0], entry.Port), nil
		}
	}
}
