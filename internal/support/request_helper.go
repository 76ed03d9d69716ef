package support

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"

	"shrike/internal/domain"
)

// CreateTransport builds a one-shot transport that tunnels every request
// through the candidate as a SOCKS5 relay. serverName is the hostname of
// the site being requested, needed for TLS verification through the
// tunnel.
func CreateTransport(proxyToCheck domain.Proxy, serverName string, timeout time.Duration) (*http.Transport, error) {
	transport := &http.Transport{
		DisableKeepAlives:     true,
		MaxIdleConns:          0,
		MaxIdleConnsPerHost:   0,
		IdleConnTimeout:       0,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	var auth *proxy.Auth
	if proxyToCheck.HasAuth() {
		auth = &proxy.Auth{User: proxyToCheck.Username, Password: proxyToCheck.Password}
	}

	socksDialer, err := proxy.SOCKS5("tcp", proxyToCheck.GetFullProxy(), auth, &net.Dialer{
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		// The dialer honors the task deadline through its context; a hung
		// relay must not outlive the scheduler's per-task budget.
		if contextDialer, ok := socksDialer.(proxy.ContextDialer); ok {
			return contextDialer.DialContext(ctx, network, addr)
		}
		return socksDialer.Dial(network, addr)
	}

	transport.TLSClientConfig = &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: false,
	}

	return transport, nil
}
