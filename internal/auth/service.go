// internal/auth/service.go
//
// Auth operations for one resolved origin.
//
// Context
// -------
// A Service is built per page load (CLI invocation or web request) from
// the resolved tenant.Config, the origin's session Store, and a Navigator.
// Each operation is one request/response exchange normalised into a
// Result.  Transport, validation, and malformed-success failures all come
// back as Result{Success:false}; nothing here returns a Go error except
// Logout, whose only failure mode is the session backend.
//
// 401 handling is not repeated here.  The client clears the namespace and
// navigates before the error reaches us.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/yanizio/hemo/internal/client"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/session"
	"github.com/yanizio/hemo/internal/tenant"
)

// Backend messages and fallbacks.
const (
	msgVerificationRequired = "Email verification required."
	msgInvalidSubdomain     = "Invalid subdomain."
	msgLoginFailed          = "Failed to login."
	msgVerifyFailed         = "An error occurred during verification."
	msgProfileFailed        = "Failed to fetch user profile."
	msgDetailsFailed        = "Failed to fetch user details"
	msgInvalidTenant        = "Invalid tenant subdomain"
	msgNoToken              = "No token found. Please log in."
	msgMissingInput         = "Username and password are required."

	// DefaultRole is stored when the login response omits a role.
	DefaultRole = "AdministrativeStaff"
)

// Service performs auth operations against one origin.
type Service struct {
	client    *client.Client
	store     session.Store
	nav       nav.Navigator
	cfg       tenant.Config
	validator *tenant.Validator
}

// NewService binds c, n, and cfg.  v may be nil, in which case operations
// that require a validated tenant skip the check.
func NewService(c *client.Client, n nav.Navigator, cfg tenant.Config, v *tenant.Validator) *Service {
	return &Service{client: c, store: c.Store(), nav: n, cfg: cfg, validator: v}
}

// Config returns the tenant config the Service was built for.
func (s *Service) Config() tenant.Config { return s.cfg }

//
// checkSubdomain
//

// CheckSubdomain asks the root API whether subdomain names a live center.
func (s *Service) CheckSubdomain(ctx context.Context, subdomain string) Result {
	resp, err := checkSubdomain(ctx, s.client, s.cfg.RootAPIBaseURL, subdomain)
	if err != nil {
		zap.L().Warn("check subdomain", zap.String("subdomain", subdomain), zap.Error(err))
		return fail(client.MessageOr(err, msgInvalidSubdomain))
	}
	return Result{Success: true, Data: resp.Body}
}

func checkSubdomain(ctx context.Context, c *client.Client, rootAPI, subdomain string) (*client.Response, error) {
	return c.Do(ctx, client.Request{
		Method:    http.MethodGet,
		URL:       rootAPI + "check-subdomain/",
		Query:     url.Values{"subdomain": {subdomain}},
		Anonymous: true,
	}, nil)
}

// SubdomainChecker adapts check-subdomain to the tenant.Validator.  A
// backend refusal is an answer; only transport failures are errors.
func SubdomainChecker(c *client.Client) tenant.CheckFunc {
	return func(ctx context.Context, cfg tenant.Config) (bool, string, error) {
		_, err := checkSubdomain(ctx, c, cfg.RootAPIBaseURL, cfg.Subdomain)
		if err == nil {
			return true, "", nil
		}
		if client.StatusOf(err) != 0 {
			return false, client.MessageOr(err, msgInvalidSubdomain), nil
		}
		return false, "", err
	}
}

//
// loginTenant
//

type tenantLoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Role    string `json:"role"`
	Center  string `json:"center"`
}

type verificationRequired struct {
	Error  string            `json:"error"`
	UserID client.FlexString `json:"user_id"`
}

// LoginTenant exchanges credentials for tenant tokens and, on success,
// writes exactly the four tenant keys.
func (s *Service) LoginTenant(ctx context.Context, username, password string) Result {
	in := credentials{Username: strings.TrimSpace(username), Password: password}
	if fe := checkInput(in); fe != nil {
		return Result{Error: msgMissingInput, FieldErrors: fe}
	}

	var out tenantLoginResponse
	_, err := s.client.Do(ctx, client.Request{
		Method: http.MethodPost,
		URL:    s.cfg.APIBaseURL + "login/",
		Body:   in,
	}, &out)
	if err != nil {
		if r, ok := needsVerification(err); ok {
			zap.L().Info("tenant login needs verification", zap.String("user_id", r.UserID))
			return r
		}
		zap.L().Info("tenant login failed",
			zap.String("subdomain", s.cfg.Subdomain), zap.Int("status", client.StatusOf(err)))
		return Result{
			Error:       client.MessageOr(err, msgLoginFailed),
			FieldErrors: client.FieldsOf(err),
		}
	}

	if out.Access == "" || out.Refresh == "" {
		zap.L().Warn("tenant login response missing tokens", zap.String("subdomain", s.cfg.Subdomain))
		return fail(msgLoginFailed)
	}
	if out.Role == "" {
		out.Role = DefaultRole
	}
	if out.Center == "" {
		out.Center = s.cfg.Subdomain
	}

	if err := session.SetAll(ctx, s.store,
		[2]string{session.KeyTenantToken, out.Access},
		[2]string{session.KeyTenantRefreshToken, out.Refresh},
		[2]string{session.KeyRole, out.Role},
		[2]string{session.KeyCenter, out.Center},
	); err != nil {
		zap.L().Error("store tenant session", zap.Error(err))
		return fail(msgLoginFailed)
	}

	zap.L().Info("tenant login", zap.String("subdomain", s.cfg.Subdomain), zap.String("role", out.Role))
	return Result{
		Success:      true,
		AccessToken:  out.Access,
		RefreshToken: out.Refresh,
		Role:         out.Role,
		Center:       out.Center,
		Username:     in.Username,
	}
}

// needsVerification recognises the 403 an unverified account gets.
func needsVerification(err error) (Result, bool) {
	var ae *client.APIError
	if !errors.As(err, &ae) || ae.Status != http.StatusForbidden {
		return Result{}, false
	}
	if ae.Message != msgVerificationRequired {
		return Result{}, false
	}
	var body verificationRequired
	_ = json.Unmarshal(ae.Body, &body)
	return Result{
		Error:             ae.Message,
		NeedsVerification: true,
		UserID:            string(body.UserID),
	}, true
}

//
// loginSuperAdmin
//

type superAdminLoginResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			Username string `json:"username"`
		} `json:"user"`
	} `json:"data"`
}

// LoginSuperAdmin exchanges credentials at the root API and, on success,
// writes the four superadmin keys.
func (s *Service) LoginSuperAdmin(ctx context.Context, username, password string) Result {
	in := credentials{Username: strings.TrimSpace(username), Password: password}
	if fe := checkInput(in); fe != nil {
		return Result{Error: msgMissingInput, FieldErrors: fe}
	}

	var out superAdminLoginResponse
	_, err := s.client.Do(ctx, client.Request{
		Method: http.MethodPost,
		URL:    tenant.StripWWW(s.cfg.RootAPIBaseURL) + "superadmin-login/",
		Body:   in,
	}, &out)
	if err != nil {
		zap.L().Info("superadmin login failed", zap.Int("status", client.StatusOf(err)))
		return Result{
			Error:       client.MessageOr(err, msgLoginFailed),
			FieldErrors: client.FieldsOf(err),
		}
	}
	if !out.Success || out.Data.AccessToken == "" || out.Data.RefreshToken == "" {
		msg := out.Error
		if msg == "" {
			msg = msgLoginFailed
		}
		return fail(msg)
	}

	user := out.Data.User.Username
	if user == "" {
		user = in.Username
	}
	if err := session.SetAll(ctx, s.store,
		[2]string{session.KeySuperAdminToken, out.Data.AccessToken},
		[2]string{session.KeySuperAdminRefreshToken, out.Data.RefreshToken},
		[2]string{session.KeyIsSuperAdmin, "true"},
		[2]string{session.KeySuperAdminUsername, user},
	); err != nil {
		zap.L().Error("store superadmin session", zap.Error(err))
		return fail(msgLoginFailed)
	}

	zap.L().Info("superadmin login", zap.String("username", user))
	return Result{
		Success:      true,
		AccessToken:  out.Data.AccessToken,
		RefreshToken: out.Data.RefreshToken,
		Username:     user,
	}
}

//
// verifyEmail
//

type verifyResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// VerifyEmail submits the emailed code for userID.
func (s *Service) VerifyEmail(ctx context.Context, userID, code string) Result {
	in := verification{UserID: strings.TrimSpace(userID), Code: strings.TrimSpace(code)}
	if fe := checkInput(in); fe != nil {
		msg := msgVerifyFailed
		if _, missing := fe["user_id"]; missing {
			msg = "User ID missing. Please try logging in again."
		}
		return Result{Error: msg, FieldErrors: fe}
	}

	var out verifyResponse
	resp, err := s.client.Do(ctx, client.Request{
		Method: http.MethodPost,
		URL:    s.cfg.APIBaseURL + "verify-user/",
		Body:   in,
	}, &out)
	if err != nil {
		return Result{
			Error:       client.MessageOr(err, msgVerifyFailed),
			FieldErrors: client.FieldsOf(err),
			UserID:      in.UserID,
		}
	}
	if out.Success != nil && !*out.Success {
		msg := out.Error
		if msg == "" {
			msg = msgVerifyFailed
		}
		return Result{Error: msg, UserID: in.UserID}
	}
	zap.L().Info("email verified", zap.String("user_id", in.UserID))
	return Result{Success: true, UserID: in.UserID, Data: resp.Body}
}

//
// logout
//

// Logout clears both namespaces and navigates to /login.  It always
// navigates; the error reports keys the backend failed to remove.
func (s *Service) Logout(ctx context.Context) error {
	var result *multierror.Error
	if err := session.Clear(ctx, s.store, session.TenantKeys...); err != nil {
		result = multierror.Append(result, err)
	}
	if err := session.Clear(ctx, s.store, session.SuperAdminKeys...); err != nil {
		result = multierror.Append(result, err)
	}
	s.nav.Navigate(nav.Login)
	zap.L().Info("logout", zap.String("host", s.cfg.Host))
	return result.ErrorOrNil()
}

//
// Profile endpoints
//

// UserProfile fetches the logged-in tenant user's profile.
func (s *Service) UserProfile(ctx context.Context) Result {
	resp, err := s.client.Do(ctx, client.Request{URL: s.cfg.APIBaseURL + "user-profile/"}, nil)
	if err != nil {
		return fail(client.MessageOr(err, msgProfileFailed))
	}
	return Result{Success: true, Data: resp.Body}
}

// UserDetails fetches the user details record.  It needs a validated
// tenant and a tenant token.
func (s *Service) UserDetails(ctx context.Context) Result {
	if s.validator != nil {
		if st := s.validator.Check(ctx, s.cfg); !st.IsValid() {
			msg := st.Reason
			if msg == "" {
				msg = msgInvalidTenant
			}
			return fail(msg)
		}
	}
	if session.Lookup(ctx, s.store, session.KeyTenantToken) == "" {
		return fail(msgNoToken)
	}
	resp, err := s.client.Do(ctx, client.Request{URL: s.cfg.APIBaseURL + "user/details/"}, nil)
	if err != nil {
		return fail(client.MessageOr(err, msgDetailsFailed))
	}
	return Result{Success: true, Data: resp.Body}
}
