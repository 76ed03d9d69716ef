package domain

import (
	"errors"
	"fmt"
	"net"
)

// Proxy is one normalized SOCKS5 candidate. Two candidates that differ
// only in their raw source line are the same proxy; identity is the
// normalized endpoint string with credentials retained.
type Proxy struct {
	IP       string `json:"ip"`
	Port     uint16 `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Raw      string `json:"-"`
}

func (proxy *Proxy) SetIP(ip string) error {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return errors.New("invalid IP address")
	}
	ipv4 := parsedIP.To4()
	if ipv4 == nil {
		return errors.New("only IPv4 addresses are supported")
	}
	proxy.IP = ipv4.String()
	return nil
}

func (proxy *Proxy) GetIp() string {
	return proxy.IP
}

func (proxy *Proxy) GetFullProxy() string {
	return fmt.Sprintf("%s:%d", proxy.GetIp(), proxy.Port)
}

// GetIdentity returns the deduplication key: host:port with any
// credentials prepended. Scheme prefixes are already stripped during
// parsing.
func (proxy *Proxy) GetIdentity() string {
	if proxy.Username == "" && proxy.Password == "" {
		return proxy.GetFullProxy()
	}
	return fmt.Sprintf("%s:%s@%s", proxy.Username, proxy.Password, proxy.GetFullProxy())
}

func (proxy *Proxy) HasAuth() bool {
	return proxy.Username != "" && proxy.Password != ""
}
