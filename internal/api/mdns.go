package api

import (
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// DNS-SD names used to advertise the API.
const (
	ServiceType   = "_graylogic-input._tcp"
	ServiceDomain = "local."

	defaultInstance = "graylogic-input"
	apiBasePath     = "/api/v1"
)

// AdvertiserConfig configures the mDNS advertisement.
type AdvertiserConfig struct {
	Instance  string
	Interface string
	Version   string
}

// Advertiser publishes the API as a DNS-SD service so clients on the
// local network can find it.
type Advertiser struct {
	cfg AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an Advertiser. Nothing is published until Advertise.
func NewAdvertiser(cfg AdvertiserConfig) *Advertiser {
	if cfg.Instance == "" {
		cfg.Instance = defaultInstance
	}
	return &Advertiser{cfg: cfg}
}

// Advertise registers the service on port, replacing any earlier record.
func (a *Advertiser) Advertise(port int) error {
	if port <= 0 {
		return fmt.Errorf("invalid port %d", port)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := zeroconf.Register(
		a.cfg.Instance,
		ServiceType,
		ServiceDomain,
		port,
		a.txtRecords(),
		a.interfaces(),
	)
	if err != nil {
		return fmt.Errorf("registering %s: %w", ServiceType, err)
	}
	a.server = server
	return nil
}

// Stop withdraws the record. Safe to call when nothing is advertised.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Advertising reports whether a record is currently published.
func (a *Advertiser) Advertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

func (a *Advertiser) txtRecords() []string {
	txt := []string{"path=" + apiBasePath}
	if a.cfg.Version != "" {
		txt = append(txt, "version="+a.cfg.Version)
	}
	return txt
}

// interfaces returns nil, meaning all interfaces, unless one is named
// and exists.
func (a *Advertiser) interfaces() []net.Interface {
	if a.cfg.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.cfg.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
