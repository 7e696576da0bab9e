package main

import (
	"bufio"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanizio/hemo/internal/auth"
	"github.com/yanizio/hemo/internal/guard"
	"github.com/yanizio/hemo/internal/menu"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/session"
)

const passwordEnv = "HEMO_PASSWORD"

// readPassword takes the flag, then HEMO_PASSWORD, then one line of stdin.
func readPassword(cmd *cobra.Command, flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env
	}
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

// landing is where a successful login sends the user: back to the page
// the guard bounced them from when it is in zone, else def.
func landing(a *app, zone guard.Zone, def string) string {
	if loc := a.nav.Location(); guard.ZoneOf(loc) == zone {
		return loc
	}
	return def
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [subdomain]",
		Short: "Ask the root API whether a subdomain names a live center",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			sub := a.tenant.Subdomain
			if len(args) == 1 {
				sub = args[0]
			}
			return a.result(a.auth.CheckSubdomain(cmd.Context(), sub))
		},
	}
}

func newLoginCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in to the tenant named by --host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			res := a.auth.LoginTenant(cmd.Context(), args[0], readPassword(cmd, password))
			switch {
			case res.Success:
				a.nav.Navigate(landing(a, guard.ZoneTenant, nav.Home))
			case res.NeedsVerification:
				a.nav.Navigate(nav.VerifyEmail)
			}
			return a.result(res)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (else $"+passwordEnv+" or stdin).")
	return cmd
}

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <user-id> <code>",
		Short: "Submit the emailed verification code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			res := a.auth.VerifyEmail(cmd.Context(), args[0], args[1])
			if res.Success {
				a.nav.Navigate(nav.Login)
			}
			return a.result(res)
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear both sessions on this origin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return a.fail(err)
			}
			return a.result(auth.Result{Success: true})
		},
	}
}

type tokenStatus struct {
	Present bool            `json:"present"`
	Claims  *auth.TokenInfo `json:"claims,omitempty"`
	Expired bool            `json:"expired,omitempty"`
}

func inspect(tok string, now time.Time) tokenStatus {
	if tok == "" {
		return tokenStatus{}
	}
	ts := tokenStatus{Present: true}
	if info, err := auth.Inspect(tok); err == nil {
		ts.Claims = &info
		ts.Expired = info.Expired(now)
	}
	return ts
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the resolved tenant, both sessions, and the current location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			snap, err := session.Read(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			st := a.validator.Check(cmd.Context(), a.tenant)
			now := time.Now()

			type tenantSession struct {
				Token  tokenStatus `json:"token"`
				Role   string      `json:"role,omitempty"`
				Center string      `json:"center,omitempty"`
			}
			type superAdminSession struct {
				Token    tokenStatus `json:"token"`
				Active   bool        `json:"active"`
				Username string      `json:"username,omitempty"`
			}
			return a.print(struct {
				Host       string            `json:"host"`
				Subdomain  string            `json:"subdomain,omitempty"`
				IsRoot     bool              `json:"is_root"`
				APIBaseURL string            `json:"api_base_url"`
				RootAPI    string            `json:"root_api_base_url"`
				Tenant     string            `json:"tenant"`
				Reason     string            `json:"reason,omitempty"`
				Location   string            `json:"location"`
				Backend    string            `json:"session_backend"`
				Session    tenantSession     `json:"session"`
				SuperAdmin superAdminSession `json:"superadmin"`
			}{
				Host:       a.tenant.Host,
				Subdomain:  a.tenant.Subdomain,
				IsRoot:     a.tenant.IsRoot,
				APIBaseURL: a.tenant.APIBaseURL,
				RootAPI:    a.tenant.RootAPIBaseURL,
				Tenant:     st.State.String(),
				Reason:     st.Reason,
				Location:   a.nav.Location(),
				Backend:    a.sessions.Backend(),
				Session:    tenantSession{inspect(snap.TenantToken, now), snap.Role, snap.Center},
				SuperAdmin: superAdminSession{inspect(snap.SuperAdminToken, now), snap.IsSuperAdmin, snap.SuperAdminUser},
			})
		},
	}
}

func newOpenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Navigate to a page through the route guard and menu gate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			path := args[0]
			snap, err := session.Read(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			// The CLI can afford to wait, so the tenant check never answers
			// pending here.
			st := guard.State{Session: snap, Tenant: a.tenant, Status: a.validator.Check(cmd.Context(), a.tenant)}
			d := guard.Evaluate(path, st)

			out := struct {
				Outcome string `json:"outcome"`
				Zone    string `json:"zone"`
				guard.Decision
				Current string `json:"current"`
			}{Outcome: d.Outcome.String(), Zone: d.Zone.String(), Decision: d}

			switch d.Outcome {
			case guard.Allow:
				if d.Zone == guard.ZoneTenant && !menu.Allowed(snap.Role, path) {
					out.Outcome = "forbidden"
					a.nav.Navigate(nav.Home)
				} else {
					a.nav.Navigate(path)
				}
			case guard.Redirect:
				a.nav.Navigate(d.Location)
			}
			out.Current = a.nav.Location()
			if err := a.print(out); err != nil {
				return err
			}
			if out.Outcome != guard.Allow.String() {
				return errFailed
			}
			return nil
		},
	}
}

func newMenuCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Show the side menu for the stored role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			role := session.Lookup(cmd.Context(), a.store, session.KeyRole)
			return a.print(struct {
				Role     string       `json:"role"`
				Known    bool         `json:"known"`
				Disabled []string     `json:"disabled"`
				Entries  []menu.Entry `json:"entries"`
			}{role, menu.Known(role), menu.Disabled(role).Sorted(), menu.Entries(role)})
		},
	}
}

func newProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Fetch the logged-in user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			return a.result(a.auth.UserProfile(cmd.Context()))
		},
	}
}

func newDetailsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "details",
		Short: "Fetch the logged-in user's details record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			return a.result(a.auth.UserDetails(cmd.Context()))
		},
	}
}
