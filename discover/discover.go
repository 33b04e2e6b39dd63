// Package discover advertises and finds sessions on the local network
// over mDNS, so joining a LAN session needs no address typing.
package discover

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/grandcat/zeroconf"
)

const service = "_collab._tcp"

// Session is one advertised session on the LAN.
type Session struct {
	Instance string
	Addr     string
}

// Advertise registers the session under this host's name. The returned
// stop function withdraws the record.
func Advertise(name string, port int) (stop func(), err error) {
	if name == "" {
		host, _ := os.Hostname()
		name = fmt.Sprintf("collab-%s", host)
	}
	server, err := zeroconf.Register(name, service, "local.", port, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("register mdns: %w", err)
	}
	return server.Shutdown, nil
}

// Browse collects the sessions visible on the LAN within the timeout.
func Browse(ctx context.Context, timeout time.Duration) ([]Session, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("mdns resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var found []Session
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			if len(entry.AddrIPv4) == 0 {
				continue
			}
			found = append(found, Session{
				Instance: entry.Instance,
				Addr:     fmt.Sprintf("%s:%d", entry.AddrIPv4[0], entry.Port),
			})
		}
	}()

	if err := resolver.Browse(ctx, service, "local.", entries); err != nil {
		return nil, fmt.Errorf("browse mdns: %w", err)
	}
	<-ctx.Done()
	<-done
	return found, nil
}
