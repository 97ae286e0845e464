// Package device supplies the device facts stamped onto every outgoing
// verification request.
package device

import (
	"net"
	"strings"
	"sync"

	"github.com/goliatone/go-verify/core"
	"github.com/google/uuid"
)

// Properties generates a device identifier once per process and reports the
// first non-loopback IPv4 address of the host.
type Properties struct {
	once     sync.Once
	deviceID string

	// Addrs lists candidate interface addresses. Defaults to
	// net.InterfaceAddrs.
	Addrs func() ([]net.Addr, error)
}

func NewProperties() *Properties {
	return &Properties{Addrs: net.InterfaceAddrs}
}

func (p *Properties) DeviceID() string {
	p.once.Do(func() {
		if p.deviceID == "" {
			p.deviceID = uuid.NewString()
		}
	})
	return p.deviceID
}

func (p *Properties) AddDeviceIdentifier(params map[string]string) bool {
	if p == nil || params == nil {
		return false
	}
	id := p.DeviceID()
	if id == "" {
		return false
	}
	params[core.ParamDeviceID] = id
	return true
}

func (p *Properties) AddIPAddress(params map[string]string) bool {
	if p == nil || params == nil {
		return false
	}
	ip := p.IPAddress()
	if ip == "" {
		return false
	}
	params[core.ParamSourceIPAddress] = ip
	return true
}

// IPAddress returns the first non-loopback IPv4 address, or "" when none is
// available.
func (p *Properties) IPAddress() string {
	source := p.Addrs
	if source == nil {
		source = net.InterfaceAddrs
	}
	addrs, err := source()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		var ip net.IP
		switch value := addr.(type) {
		case *net.IPNet:
			ip = value.IP
		case *net.IPAddr:
			ip = value.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}

// Static supplies fixed device facts. Empty fields make the matching method
// report failure.
type Static struct {
	DeviceID  string
	IPAddress string
}

func (s Static) AddDeviceIdentifier(params map[string]string) bool {
	id := strings.TrimSpace(s.DeviceID)
	if id == "" || params == nil {
		return false
	}
	params[core.ParamDeviceID] = id
	return true
}

func (s Static) AddIPAddress(params map[string]string) bool {
	ip := strings.TrimSpace(s.IPAddress)
	if ip == "" || params == nil {
		return false
	}
	params[core.ParamSourceIPAddress] = ip
	return true
}

var (
	_ core.DeviceProperties = (*Properties)(nil)
	_ core.DeviceProperties = Static{}
)
