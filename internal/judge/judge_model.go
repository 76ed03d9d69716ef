package judge

import (
	"fmt"
	"net/url"
	"sync"
)

// Judge is one echo endpoint used to verify that a candidate actually
// tunnels traffic. The URL is parsed once during setup; everything else
// is immutable afterwards and safe for concurrent reads.
type Judge struct {
	url        url.URL
	hostname   string
	fullString string
	setupOnce  sync.Once
}

func (judge *Judge) SetUp(urlStr string) error {
	var err error
	judge.setupOnce.Do(func() {
		var parsedURL *url.URL
		parsedURL, err = url.Parse(urlStr)
		if err != nil {
			return
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			err = fmt.Errorf("judge %q: unsupported scheme %q", urlStr, parsedURL.Scheme)
			return
		}
		if parsedURL.Hostname() == "" {
			err = fmt.Errorf("judge %q has no hostname", urlStr)
			return
		}

		judge.url = *parsedURL
		judge.hostname = parsedURL.Hostname()
		judge.fullString = parsedURL.String()
	})
	return err
}

func (judge *Judge) GetHostname() string {
	return judge.hostname
}

func (judge *Judge) GetFullString() string {
	return judge.fullString
}

func (judge *Judge) GetScheme() string {
	return judge.url.Scheme
}

// ParseJudges sets up every configured echo endpoint. A judge whose URL
// does not parse rejects the whole configuration; broken judges must not
// surface mid-run as candidate failures.
func ParseJudges(urls []string) ([]*Judge, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("no judges configured")
	}

	judges := make([]*Judge, 0, len(urls))
	for _, urlStr := range urls {
		j := &Judge{}
		if err := j.SetUp(urlStr); err != nil {
			return nil, err
		}
		judges = append(judges, j)
	}

	return judges, nil
}
