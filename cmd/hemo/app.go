package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/hemo/internal/auth"
	"github.com/yanizio/hemo/internal/client"
	"github.com/yanizio/hemo/internal/config"
	"github.com/yanizio/hemo/internal/logger"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/session"
	"github.com/yanizio/hemo/internal/tenant"
)

// errFailed marks a command whose result was already printed.
var errFailed = errors.New("operation failed")

// app is the state of one invocation.
type app struct {
	cfg       *config.Config
	tenant    tenant.Config
	sessions  *session.Factory
	store     session.Store
	nav       *nav.Stored
	client    *client.Client
	validator *tenant.Validator
	auth      *auth.Service
	out       io.Writer
}

type globalFlags struct {
	host    string
	root    string
	verbose bool
}

func newApp(ctx context.Context, gf globalFlags, out io.Writer) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if gf.root != "" {
		cfg, err = config.LoadFrom(ctx, gf.root)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Log.Tee = cfg.Log.Tee || gf.verbose
	if _, err := logger.New(cfg.Log); err != nil {
		return nil, fmt.Errorf("start logger: %w", err)
	}

	host := gf.host
	if host == "" {
		host = cfg.Tenant.Host
	}
	if host == "" {
		return nil, errors.New("no host: pass --host or set tenant.host")
	}
	tc := tenant.NewResolver(tenant.NewPolicy(cfg.Tenant.RootDomain, cfg.Tenant.Scheme)).Resolve(host)

	sessions, err := session.NewFactory(ctx, cfg.Session)
	if err != nil {
		return nil, err
	}
	store, err := sessions.Open(tc.Host)
	if err != nil {
		sessions.Close()
		return nil, err
	}
	navigator, err := nav.Restore(ctx, store, nav.Root)
	if err != nil {
		sessions.Close()
		return nil, fmt.Errorf("restore location: %w", err)
	}

	c := client.New(store, navigator, cfg.Client)
	v := tenant.NewValidator(auth.SubdomainChecker(c), cfg.Tenant.ValidationTTL, 16)

	zap.L().Debug("page load", zap.String("host", tc.Host), zap.String("location", navigator.Location()))
	return &app{
		cfg:       cfg,
		tenant:    tc,
		sessions:  sessions,
		store:     store,
		nav:       navigator,
		client:    c,
		validator: v,
		auth:      auth.NewService(c, navigator, tc, v),
		out:       out,
	}, nil
}

func (a *app) Close() error {
	_ = zap.L().Sync()
	return a.sessions.Close()
}

// print writes v as indented JSON.
func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// result prints res and turns a failure into errFailed.
func (a *app) result(res auth.Result) error {
	if err := a.print(res); err != nil {
		return err
	}
	if !res.Success {
		return errFailed
	}
	return nil
}

// fail prints err the way the web shell renders resource errors.
func (a *app) fail(err error) error {
	_ = a.print(struct {
		Error       string              `json:"error"`
		FieldErrors map[string][]string `json:"field_errors,omitempty"`
		Location    string              `json:"location,omitempty"`
	}{client.MessageOr(err, err.Error()), client.FieldsOf(err), a.movedTo()})
	return errFailed
}

func (a *app) movedTo() string {
	if a.nav.Moved() {
		return a.nav.Location()
	}
	return ""
}

// appKey stores the app on the command context.
type appKey struct{}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey{}).(*app)
}
