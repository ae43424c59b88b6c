package service_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marginalia/backend/internal/model"
	"marginalia/backend/internal/service"
	"marginalia/backend/pkg/ratelimit"
	"marginalia/backend/pkg/safeoutbound"
)

// publicResolver resolves every host to a public address so the
// outbound check passes without touching DNS.
type publicResolver struct{}

func (publicResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	return []net.IPAddr{{IP: net.ParseIP("140.82.112.6")}}, nil
}

// privateResolver simulates a rebinding attack: the tracker hostname
// suddenly resolves to an internal address.
type privateResolver struct{}

func (privateResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	return []net.IPAddr{{IP: net.ParseIP("10.0.0.5")}}, nil
}

// recordingTransport captures outbound requests and answers 201.
type recordingTransport struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	status   int
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	body := ""
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	rt.requests = append(rt.requests, req)
	rt.bodies = append(rt.bodies, body)

	status := rt.status
	if status == 0 {
		status = http.StatusCreated
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(`{}`)),
		Header:     make(http.Header),
	}, nil
}

func (rt *recordingTransport) count() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.requests)
}

func newReportService(t *testing.T, token string, resolver safeoutbound.Resolver, transport *recordingTransport) service.ReportService {
	t.Helper()
	store := ratelimit.NewMemoryStore()
	return service.NewReportService(
		ratelimit.New(store, time.Minute, 5),
		ratelimit.New(store, 10*time.Minute, 3),
		safeoutbound.New(resolver),
		&http.Client{Transport: transport},
		token,
		"example/tracker",
	)
}

func TestReportService_Report_WithinLimit(t *testing.T) {
	transport := &recordingTransport{}
	svc := newReportService(t, "gh-token", publicResolver{}, transport)
	ctx := context.Background()
	alice := &model.User{ID: 1, Username: "alice"}
	bob := &model.User{ID: 2, Username: "bob"}

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Report(ctx, alice, "document", "doc.pdf", "offensive content"))
	}
	require.ErrorIs(t, svc.Report(ctx, alice, "document", "doc.pdf", "again"), service.ErrRateLimited)

	// A different user is unaffected.
	require.NoError(t, svc.Report(ctx, bob, "document", "doc.pdf", "other"))

	require.Equal(t, 6, transport.count())
	first := transport.requests[0]
	require.Equal(t, "api.github.com", first.URL.Host)
	require.Equal(t, "Bearer gh-token", first.Header.Get("Authorization"))
	require.Contains(t, transport.bodies[0], "doc.pdf")
	require.Contains(t, transport.bodies[0], "alice")
}

func TestReportService_Report_NoTokenStillSucceeds(t *testing.T) {
	transport := &recordingTransport{}
	svc := newReportService(t, "", publicResolver{}, transport)
	alice := &model.User{ID: 1, Username: "alice"}

	require.NoError(t, svc.Report(context.Background(), alice, "document", "doc.pdf", "bad"))
	require.Zero(t, transport.count())
}

func TestReportService_Report_Validation(t *testing.T) {
	svc := newReportService(t, "gh-token", publicResolver{}, &recordingTransport{})
	ctx := context.Background()
	alice := &model.User{ID: 1, Username: "alice"}

	require.ErrorIs(t, svc.Report(ctx, nil, "document", "doc.pdf", "x"), service.ErrForbidden)
	require.ErrorIs(t, svc.Report(ctx, alice, "gadget", "doc.pdf", "x"), service.ErrInvalid)
	require.ErrorIs(t, svc.Report(ctx, alice, "document", "", "x"), service.ErrInvalid)
}

func TestReportService_RequestFeature(t *testing.T) {
	transport := &recordingTransport{}
	svc := newReportService(t, "gh-token", publicResolver{}, transport)
	ctx := context.Background()

	require.NoError(t, svc.RequestFeature(ctx, "1.2.3.4", nil, "Dark mode", "please"))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(transport.bodies[0]), &payload))
	require.Equal(t, "Dark mode", payload["title"])

	require.NoError(t, svc.RequestFeature(ctx, "1.2.3.4", nil, "Second", ""))
	require.NoError(t, svc.RequestFeature(ctx, "1.2.3.4", nil, "Third", ""))
	require.ErrorIs(t, svc.RequestFeature(ctx, "1.2.3.4", nil, "Fourth", ""), service.ErrRateLimited)
}

func TestReportService_StripsMarkupBeforeForwarding(t *testing.T) {
	transport := &recordingTransport{}
	svc := newReportService(t, "gh-token", publicResolver{}, transport)
	ctx := context.Background()
	alice := &model.User{ID: 1, Username: "alice"}

	require.NoError(t, svc.Report(ctx, alice, "document", "doc.pdf",
		`<script>alert(1)</script>contains <b>slurs</b>`))
	require.Contains(t, transport.bodies[0], "alert(1)contains slurs")
	require.NotContains(t, transport.bodies[0], "<script>")
	require.NotContains(t, transport.bodies[0], "<b>")

	require.NoError(t, svc.RequestFeature(ctx, "1.2.3.4", nil,
		"  <em>Dark</em> mode  ", "<p>please</p>"))
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(transport.bodies[1]), &payload))
	require.Equal(t, "Dark mode", payload["title"])
	require.Equal(t, "please", payload["body"])

	// A title that is nothing but markup is rejected.
	require.ErrorIs(t, svc.RequestFeature(ctx, "1.2.3.4", nil, "<br/>", ""), service.ErrInvalid)
}

func TestReportService_RequestFeature_NotConfigured(t *testing.T) {
	transport := &recordingTransport{}
	svc := newReportService(t, "", publicResolver{}, transport)
	ctx := context.Background()

	// Attempts count against the limit even while unconfigured.
	for i := 0; i < 3; i++ {
		require.ErrorIs(t, svc.RequestFeature(ctx, "1.2.3.4", nil, "Title", ""), service.ErrNotConfigured)
	}
	require.ErrorIs(t, svc.RequestFeature(ctx, "1.2.3.4", nil, "Title", ""), service.ErrRateLimited)
	require.Zero(t, transport.count())
}

func TestReportService_RequestFeature_BlocksPrivateDestination(t *testing.T) {
	transport := &recordingTransport{}
	svc := newReportService(t, "gh-token", privateResolver{}, transport)

	err := svc.RequestFeature(context.Background(), "1.2.3.4", nil, "Title", "")
	require.Error(t, err)
	require.Zero(t, transport.count(), "no request may leave when resolution is private")
}

func TestReportService_RequestFeature_TrackerError(t *testing.T) {
	transport := &recordingTransport{status: http.StatusForbidden}
	svc := newReportService(t, "gh-token", publicResolver{}, transport)

	err := svc.RequestFeature(context.Background(), "1.2.3.4", nil, "Title", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}
