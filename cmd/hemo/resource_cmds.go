package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yanizio/hemo/internal/center"
	"github.com/yanizio/hemo/internal/guard"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/superadmin"
)

/*──────────────────────────── center ───────────────────────────────────────*/

func newCenterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "center",
		Short: "Read the current tenant's center",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "details",
		Short: "Show the center record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			d, err := center.NewService(a.client, a.tenant).Details(cmd.Context())
			if err != nil {
				return a.fail(err)
			}
			return a.print(d)
		},
	})

	var dir string
	report := &cobra.Command{
		Use:   "report",
		Short: "Download the center's PDF report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			var buf bytes.Buffer
			name, err := center.NewService(a.client, a.tenant).ExportReport(cmd.Context(), &buf)
			if err != nil {
				return a.fail(err)
			}
			// The backend chooses the name; keep only its base.
			path := filepath.Join(dir, filepath.Base(name))
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			return a.print(struct {
				File  string `json:"file"`
				Bytes int    `json:"bytes"`
			}{path, buf.Len()})
		},
	}
	report.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to save the report in.")
	cmd.AddCommand(report)
	return cmd
}

/*──────────────────────────── superadmin ───────────────────────────────────*/

func newSuperAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "superadmin",
		Short: "Platform administration on the root domain",
	}
	cmd.AddCommand(
		newSuperAdminLoginCommand(),
		newCentersCommand(),
		newAddCenterCommand(),
		newGovernoratesCommand(),
		newDelegationsCommand(),
	)
	return cmd
}

func newSuperAdminLoginCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in as superadmin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			res := a.auth.LoginSuperAdmin(cmd.Context(), args[0], readPassword(cmd, password))
			if res.Success {
				a.nav.Navigate(landing(a, guard.ZoneSuperAdmin, nav.SuperAdminDashboard))
			}
			return a.result(res)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (else $"+passwordEnv+" or stdin).")
	return cmd
}

func newCentersCommand() *cobra.Command {
	var f superadmin.Filter
	cmd := &cobra.Command{
		Use:   "centers",
		Short: "List centers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			page, err := superadmin.NewService(a.client, a.tenant).Centers(cmd.Context(), f)
			if err != nil {
				return a.fail(err)
			}
			return a.print(page)
		},
	}
	cmd.Flags().StringVar(&f.Label, "label", "", "Filter by label substring.")
	cmd.Flags().IntVar(&f.GovernorateID, "governorate", 0, "Filter by governorate id.")
	cmd.Flags().IntVar(&f.DelegationID, "delegation", 0, "Filter by delegation id.")
	cmd.Flags().IntVar(&f.Page, "page", 0, "Page number.")
	cmd.Flags().IntVar(&f.PageSize, "page-size", 0, "Page size.")
	return cmd
}

func newAddCenterCommand() *cobra.Command {
	var (
		nc                            superadmin.NewCenter
		governorate, delegation, code int
	)
	cmd := &cobra.Command{
		Use:   "add-center",
		Short: "Provision a new center",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			// Unset integer flags are sent as null, not zero.
			if cmd.Flags().Changed("governorate") {
				nc.Governorate = &governorate
			}
			if cmd.Flags().Changed("delegation") {
				nc.Delegation = &delegation
			}
			if cmd.Flags().Changed("center-code") {
				nc.CenterCode = &code
			}
			out, err := superadmin.NewService(a.client, a.tenant).AddCenter(cmd.Context(), nc)
			if err != nil {
				return a.fail(err)
			}
			return a.print(out)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&nc.SubDomain, "sub-domain", "", "Subdomain the center will answer on.")
	fl.StringVar(&nc.Label, "label", "", "Display name.")
	fl.StringVar(&nc.Tel, "tel", "", "Phone number.")
	fl.StringVar(&nc.Mail, "mail", "", "Contact e-mail.")
	fl.StringVar(&nc.Adresse, "address", "", "Postal address.")
	fl.IntVar(&governorate, "governorate", 0, "Governorate id.")
	fl.IntVar(&delegation, "delegation", 0, "Delegation id.")
	fl.StringVar(&nc.TypeCenter, "type", "", "CIRCONSCRIPTION, REGIONAL, UNIVERSITY, BASIC, or PRIVATE.")
	fl.StringVar(&nc.CodeTypeHemo, "code-type-hemo", "", "MD2200, UNITE, or UNITEP.")
	fl.StringVar(&nc.NameTypeHemo, "name-type-hemo", "", "Hemodialysis unit name type.")
	fl.IntVar(&code, "center-code", 0, "Numeric center code.")
	return cmd
}

func newGovernoratesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "governorates",
		Short: "List governorates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			gs, err := superadmin.NewService(a.client, a.tenant).Governorates(cmd.Context())
			if err != nil {
				return a.fail(err)
			}
			return a.print(gs)
		},
	}
}

func newDelegationsCommand() *cobra.Command {
	var governorate int
	cmd := &cobra.Command{
		Use:   "delegations",
		Short: "List delegations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ds, err := superadmin.NewService(a.client, a.tenant).Delegations(cmd.Context(), governorate)
			if err != nil {
				return a.fail(err)
			}
			return a.print(ds)
		},
	}
	cmd.Flags().IntVar(&governorate, "governorate", 0, "Only delegations of this governorate.")
	return cmd
}
