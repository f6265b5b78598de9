// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package server

import (
	"fmt"
	"net"
	"os"

	"github.com/hashicorp/mdns"

	"github.com/gogpu/freehand"
)

// ServiceType is the DNS-SD service type freehand servers advertise.
const ServiceType = "_freehand._tcp"

// Advertise announces a server listening on port over mDNS. An empty
// instance uses the host name. Shut the returned server down to withdraw
// the announcement.
func Advertise(instance string, port int) (*mdns.Server, error) {
	svc, err := newService(instance, port, "", nil)
	if err != nil {
		return nil, err
	}
	srv, err := mdns.NewServer(&mdns.Config{Zone: svc})
	if err != nil {
		return nil, fmt.Errorf("server: start mDNS responder: %w", err)
	}
	freehand.Logger().Info("freehand: advertising", "instance", svc.Instance, "service", ServiceType, "port", port)
	return srv, nil
}

func newService(instance string, port int, hostName string, ips []net.IP) (*mdns.MDNSService, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("server: hostname: %w", err)
		}
		instance = host
	}
	svc, err := mdns.NewMDNSService(instance, ServiceType, "", hostName, port, ips,
		[]string{"freehand", "path=/canvas/"})
	if err != nil {
		return nil, fmt.Errorf("server: mDNS service: %w", err)
	}
	return svc, nil
}

// Browse looks up freehand servers on the local network and calls found
// with the host:port of each one that answers. It returns after the
// lookup timeout.
func Browse(found func(addr string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)))
		}
	}()
	err := mdns.Lookup(ServiceType, entries)
	close(entries)
	<-done
	return err
}
