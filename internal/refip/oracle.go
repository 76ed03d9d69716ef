package refip

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"shrike/internal/jobs/checker"
	"shrike/internal/judge"
)

// Oracle resolves the caller's own public IP once per run. The answer
// feeds the self-IP guard in the checker; an empty string means the
// address is unknown and filtering stays off.
type Oracle struct {
	lookupURL string
	timeout   time.Duration

	once sync.Once
	ip   string
}

func New(lookupURL string, timeout time.Duration) *Oracle {
	return &Oracle{
		lookupURL: lookupURL,
		timeout:   timeout,
	}
}

// IP memoizes the first lookup, failures included. A flaky lookup
// endpoint must not leave half the run filtering and half not.
func (oracle *Oracle) IP(ctx context.Context) string {
	oracle.once.Do(func() {
		body, err := checker.DefaultRequest(ctx, oracle.lookupURL, oracle.timeout)
		if err != nil {
			log.Warn("Reference IP lookup failed, self-IP filtering disabled", "url", oracle.lookupURL, "error", err)
			return
		}

		ip, ok := judge.ExtractIP(body)
		if !ok {
			log.Warn("Reference IP lookup returned no usable address, self-IP filtering disabled", "url", oracle.lookupURL)
			return
		}

		oracle.ip = ip
		log.Debug("Reference IP resolved", "ip", ip)
	})

	return oracle.ip
}
