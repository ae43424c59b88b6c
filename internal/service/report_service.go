package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"marginalia/backend/internal/model"
	"marginalia/backend/pkg/logger"
	"marginalia/backend/pkg/ratelimit"
	"marginalia/backend/pkg/safeoutbound"
	"marginalia/backend/pkg/sanitizer"
)

const maxReportLength = 4000

// githubIssueHosts is the only destination reports are ever forwarded
// to. The URL is re-checked before every call.
var githubIssueHosts = safeoutbound.NewHostSet("api.github.com")

// reportableTypes are the values accepted for a report's target type.
var reportableTypes = map[string]struct{}{
	"document":   {},
	"annotation": {},
	"comment":    {},
}

type ReportService interface {
	Report(ctx context.Context, user *model.User, targetType, targetID, reason string) error
	RequestFeature(ctx context.Context, clientKey string, user *model.User, title, description string) error
}

type reportService struct {
	reportLimiter  *ratelimit.Limiter
	featureLimiter *ratelimit.Limiter
	checker        *safeoutbound.Checker
	client         *http.Client
	token          string
	repo           string
}

// NewReportService wires the two abuse-limited endpoints that forward
// to the GitHub issue tracker. repo is "owner/name"; token may be
// empty, in which case feature requests are refused and reports are
// only logged.
func NewReportService(reportLimiter, featureLimiter *ratelimit.Limiter, checker *safeoutbound.Checker, client *http.Client, token, repo string) ReportService {
	if client == nil {
		client = http.DefaultClient
	}
	return &reportService{
		reportLimiter:  reportLimiter,
		featureLimiter: featureLimiter,
		checker:        checker,
		client:         client,
		token:          token,
		repo:           repo,
	}
}

// Report records an abuse report about a document, annotation or
// comment. The limit is keyed by the reporting user. Forwarding to the
// issue tracker is best effort; the report succeeds as long as the
// caller is within the rate limit.
func (s *reportService) Report(ctx context.Context, user *model.User, targetType, targetID, reason string) error {
	if user == nil {
		return ErrForbidden
	}
	if _, ok := reportableTypes[targetType]; !ok || targetID == "" {
		return ErrInvalid
	}

	result, err := s.reportLimiter.Allow(ctx, "report:"+strconv.FormatInt(user.ID, 10))
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !result.Allowed {
		return ErrRateLimited
	}

	reason = sanitizer.Truncate(sanitizer.PlainText(reason), maxReportLength)
	logger.Info("content report received",
		"module", "report",
		"target_type", targetType,
		"target_id", targetID,
		"reason_length", len(reason),
	)

	if s.token == "" {
		return nil
	}

	title := fmt.Sprintf("Content report: %s %s", targetType, targetID)
	body := fmt.Sprintf("Type: %s\nID: %s\nReported by: %s\n\n%s", targetType, targetID, user.Username, reason)
	if err := s.createIssue(ctx, title, body, []string{"content-report"}); err != nil {
		// The reporter already got their answer; failure to reach the
		// tracker is an operational problem, not theirs.
		logger.Error("failed to forward report", "module", "report", "error", err)
	}
	return nil
}

// RequestFeature files a feature request as a GitHub issue. The
// attempt counts against the caller's limit even when the tracker is
// not configured.
func (s *reportService) RequestFeature(ctx context.Context, clientKey string, user *model.User, title, description string) error {
	result, err := s.featureLimiter.Allow(ctx, "feature:"+clientKey)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !result.Allowed {
		return ErrRateLimited
	}

	if s.token == "" {
		return ErrNotConfigured
	}

	title = sanitizer.Truncate(sanitizer.PlainText(title), 200)
	description = sanitizer.Truncate(sanitizer.PlainText(description), maxReportLength)
	if title == "" {
		return ErrInvalid
	}
	if user != nil {
		description = fmt.Sprintf("%s\n\n_Requested by %s_", description, user.Username)
	}

	if err := s.createIssue(ctx, title, description, []string{"feature-request"}); err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

func (s *reportService) createIssue(ctx context.Context, title, body string, labels []string) error {
	issueURL := fmt.Sprintf("https://api.github.com/repos/%s/issues", s.repo)
	if !s.checker.IsPublicOutboundURL(ctx, issueURL, githubIssueHosts) {
		return fmt.Errorf("refusing outbound call to %s", issueURL)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title":  title,
		"body":   body,
		"labels": labels,
	})
	if err != nil {
		return fmt.Errorf("encode issue: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, issueURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call issue tracker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("issue tracker returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
