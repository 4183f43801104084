// Package zeroconf registers the zonecast control API as an mDNS/DNS-SD
// service so controllers can discover it on the LAN.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"
)

// Service manages mDNS service registration.
type Service struct {
	name   string // instance name / hostname
	port   int
	zones  int
	server *zeroconf.Server
}

// New creates a new zeroconf Service that will advertise on the given port.
func New(name string, port, zones int) *Service {
	return &Service{
		name:  name,
		port:  port,
		zones: zones,
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at
// which point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	txt := []string{
		"version=0.1.0",
		"model=zonecast",
		fmt.Sprintf("zones=%d", s.zones),
	}

	server, err := zeroconf.Register(
		s.name,               // instance name
		"_zonecast-api._tcp", // service type
		"local.",             // domain
		s.port,               // port
		txt,                  // TXT records
		nil,                  // ifaces — nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	s.server = server
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"port", s.port,
		"txt", txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
