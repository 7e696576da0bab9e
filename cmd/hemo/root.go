package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRootCommand builds the command tree.  The returned func releases the
// invocation's session backend; cobra skips post-run hooks after a failed
// RunE, so the caller runs it instead.
func newRootCommand() (*cobra.Command, func()) {
	var (
		gf  globalFlags
		cur *app
	)
	cmd := &cobra.Command{
		Use:           "hemo",
		Short:         "Operate a hemodialysis-center tenant from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), gf, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			cur = a
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&gf.host, "host", "", "Hostname to act as (defaults to tenant.host).")
	cmd.PersistentFlags().StringVar(&gf.root, "root", "", "Directory holding conf/hemo.yaml (defaults to discovery).")
	cmd.PersistentFlags().BoolVarP(&gf.verbose, "verbose", "v", false, "Mirror logs to stderr.")

	cmd.AddCommand(
		newCheckCommand(),
		newLoginCommand(),
		newVerifyCommand(),
		newLogoutCommand(),
		newStatusCommand(),
		newOpenCommand(),
		newMenuCommand(),
		newProfileCommand(),
		newDetailsCommand(),
		newCenterCommand(),
		newSuperAdminCommand(),
	)

	done := func() {
		if cur == nil {
			return
		}
		if err := cur.Close(); err != nil {
			zap.L().Warn("close session backend", zap.Error(err))
		}
		cur = nil
	}
	return cmd, done
}

// execute runs one invocation with args.  A failure whose result was
// already printed comes back as errFailed.
func execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	cmd, done := newRootCommand()
	defer done()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errFailed) {
			return errFailed
		}
		return err
	}
	return nil
}
