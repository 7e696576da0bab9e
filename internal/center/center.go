// Package center reads the resources of the tenant a page is bound to:
// its details record and its PDF activity report.
package center

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/hemo/internal/client"
	"github.com/yanizio/hemo/internal/session"
	"github.com/yanizio/hemo/internal/tenant"
)

// Errors callers render verbatim.
var (
	ErrNoToken      = errors.New("No authentication token found. Please log in.")
	ErrNoCenter     = errors.New("No center found for this subdomain.")
	ErrReportFailed = errors.New("Failed to download report.")
)

// Ref is a governorate or delegation as nested in a center record.
type Ref struct {
	ID            int               `json:"id"`
	Name          string            `json:"name,omitempty"`
	Label         string            `json:"label,omitempty"`
	Code          client.FlexString `json:"code,omitempty"`
	GovernorateID int               `json:"governorate_id,omitempty"`
}

// Title is Label when the backend sent one, else Name.
func (r *Ref) Title() string {
	if r == nil {
		return ""
	}
	if r.Label != "" {
		return r.Label
	}
	return r.Name
}

// Details is the center-details record.
type Details struct {
	ID           int               `json:"id"`
	SubDomain    string            `json:"sub_domain"`
	Label        string            `json:"label"`
	Tel          string            `json:"tel"`
	Mail         string            `json:"mail"`
	Adresse      string            `json:"adresse"`
	Governorate  *Ref              `json:"governorate"`
	Delegation   *Ref              `json:"delegation"`
	TypeCenter   string            `json:"type_center"`
	CodeTypeHemo string            `json:"code_type_hemo"`
	NameTypeHemo string            `json:"name_type_hemo"`
	CenterCode   client.FlexString `json:"center_code"`
}

// Service reads center resources through the tenant API.
type Service struct {
	client *client.Client
	cfg    tenant.Config
	now    func() time.Time
}

func NewService(c *client.Client, cfg tenant.Config) *Service {
	return &Service{client: c, cfg: cfg, now: time.Now}
}

// Details fetches the center bound to the current subdomain.
func (s *Service) Details(ctx context.Context) (Details, error) {
	var d Details
	_, err := s.client.Do(ctx, client.Request{URL: s.cfg.APIBaseURL + "center-details/"}, &d)
	if err != nil {
		return Details{}, fmt.Errorf("center details: %w", err)
	}
	return d, nil
}

// ExportReport streams the PDF report to w and returns the file name the
// backend suggested, or center_report_<date>.pdf.
func (s *Service) ExportReport(ctx context.Context, w io.Writer) (string, error) {
	if session.Lookup(ctx, s.client.Store(), session.KeyTenantToken) == "" {
		return "", ErrNoToken
	}

	resp, err := s.client.Stream(ctx, client.Request{URL: s.cfg.APIBaseURL + "export-pdf/"}, w)
	if err != nil {
		zap.L().Warn("export report", zap.String("subdomain", s.cfg.Subdomain), zap.Error(err))
		switch client.StatusOf(err) {
		case http.StatusNotFound:
			return "", ErrNoCenter
		case http.StatusUnauthorized:
			return "", err
		case 0:
			return "", fmt.Errorf("%w: %w", ErrReportFailed, err)
		default:
			return "", ErrReportFailed
		}
	}
	return s.filename(resp.Header.Get("Content-Disposition")), nil
}

func (s *Service) filename(disposition string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	return "center_report_" + s.now().Format(time.DateOnly) + ".pdf"
}
