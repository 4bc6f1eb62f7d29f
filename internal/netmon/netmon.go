// Package netmon tracks whether the host currently has a usable network
// address. A background poller is the only writer of the availability flag;
// everything else reads it through Available.
package netmon

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Monitor struct {
	interval  time.Duration
	available atomic.Bool
	done      chan struct{}
	stopOnce  sync.Once
}

func New(interval time.Duration) *Monitor {
	return &Monitor{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start probes once synchronously so Available is meaningful immediately,
// then keeps polling until Stop is called.
func (m *Monitor) Start() {
	m.available.Store(probe())
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})
}

func (m *Monitor) Available() bool {
	return m.available.Load()
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			up := probe()
			if up != m.available.Load() {
				log.Infof("network availability changed to %v", up)
			}
			m.available.Store(up)
		}
	}
}

func probe() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		log.Warnf("failed to list network interfaces: %v", err)
		return false
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.IsGlobalUnicast() {
				return true
			}
		}
	}

	return false
}

// LocalIP returns the first global unicast IPv4 address of an interface that
// is up, which serves as the bank code when no explicit listen address is
// configured.
func LocalIP() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", errors.Wrap(err, "list network interfaces")
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip := ipNet.IP.To4(); ip != nil && ip.IsGlobalUnicast() {
				return ip.String(), nil
			}
		}
	}

	return "", errors.New("no usable network interface found")
}
