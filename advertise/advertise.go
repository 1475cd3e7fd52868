package advertise

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/libp2p/zeroconf/v2"
	"github.com/sirupsen/logrus"
)

// ServiceType is the DNS-SD type of AirPlay audio receivers.
const ServiceType = "_raop._tcp"

// ErrInvalidConfig indicates a missing name, hardware address or port.
var ErrInvalidConfig = errors.New("invalid advertisement config")

// Config describes the advertised receiver.
type Config struct {
	Name            string
	HardwareAddress net.HardwareAddr
	Port            int
	Domain          string
	// Interfaces restricts publishing; nil publishes on all multicast
	// interfaces.
	Interfaces []net.Interface
}

// InstanceName returns "<HEXMAC>@<name>", the hex upper case without
// separators.
func InstanceName(hw net.HardwareAddr, name string) string {
	return strings.ToUpper(strings.ReplaceAll(hw.String(), ":", "")) + "@" + name
}

// TXTRecords returns the receiver's capability attributes: RSA encryption,
// UDP transport, ALAC, and text, artwork and progress metadata.
func TXTRecords() []string {
	return []string{
		"txtvers=1",
		"ch=2",
		"ss=16",
		"sr=44100",
		"et=1",
		"sf=0x4",
		"tp=UDP",
		"vn=3",
		"cn=1",
		"md=0,1,2",
	}
}

// Advertiser is a published record.
type Advertiser struct {
	server   *zeroconf.Server
	instance string
}

// Publish registers the record and keeps answering queries until Close.
func Publish(cfg Config) (*Advertiser, error) {
	if cfg.Name == "" || len(cfg.HardwareAddress) == 0 || cfg.Port <= 0 {
		return nil, ErrInvalidConfig
	}
	domain := cfg.Domain
	if domain == "" {
		domain = "local."
	}

	instance := InstanceName(cfg.HardwareAddress, cfg.Name)
	server, err := zeroconf.Register(instance, ServiceType, domain, cfg.Port, TXTRecords(), cfg.Interfaces)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", ServiceType, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Publish",
		"instance": instance,
		"service":  ServiceType,
		"port":     cfg.Port,
	}).Info("Advertising receiver")

	return &Advertiser{server: server, instance: instance}, nil
}

// Instance returns the published instance name.
func (a *Advertiser) Instance() string {
	return a.instance
}

// Close withdraws the record.
func (a *Advertiser) Close() error {
	if a == nil || a.server == nil {
		return nil
	}
	a.server.Shutdown()
	logrus.WithFields(logrus.Fields{
		"function": "Advertiser.Close",
		"instance": a.instance,
	}).Info("Advertisement withdrawn")
	return nil
}
