// Package network builds the HTTP clients used for outbound traffic:
// short-lived API calls (GitHub issues, blob uploads) and long-running
// corpus archive downloads.
package network

import (
	"context"
	"net"
	"net/http"
	"time"
)

// ClientFactory creates HTTP clients with shared transport settings.
type ClientFactory struct {
	testHTTPClient *http.Client // For testing only
}

// NewClientFactory creates a new client factory.
func NewClientFactory() *ClientFactory {
	return &ClientFactory{}
}

// NewClientFactoryForTest creates a client factory that hands out the
// given http.Client. This is only for use in tests.
func NewClientFactoryForTest(client *http.Client) *ClientFactory {
	return &ClientFactory{testHTTPClient: client}
}

// NewHTTPClient creates a client for API calls with an overall timeout.
// Proxy configuration is taken from the environment.
func (f *ClientFactory) NewHTTPClient(timeout time.Duration) *http.Client {
	if f.testHTTPClient != nil {
		return f.testHTTPClient
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
		},
	}
}

// NewDownloadClient creates a client for multi-gigabyte archive
// transfers. There is no overall timeout -- a resumed dataset download
// can legitimately run for hours -- but connection setup and response
// headers are bounded so a dead mirror fails fast.
func (f *ClientFactory) NewDownloadClient() *http.Client {
	if f.testHTTPClient != nil {
		return f.testHTTPClient
	}

	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   15 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
		},
	}
}

// TestEndpoint makes a GET request to testURL to verify connectivity.
func (f *ClientFactory) TestEndpoint(ctx context.Context, testURL string) error {
	client := f.NewHTTPClient(10 * time.Second)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, testURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return nil
}
