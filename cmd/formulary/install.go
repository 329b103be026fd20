package formulary

import (
	"fmt"
	"io"

	"github.com/arthur-debert/formulary/pkg/logging"
	"github.com/arthur-debert/formulary/pkg/style"
	"github.com/spf13/cobra"
)

func newInstallCmd(g *globalOptions) *cobra.Command {
	var (
		dryRun   bool
		skipTest bool
	)

	cmd := &cobra.Command{
		Use:               "install <formula>",
		Short:             MsgInstallShort,
		Long:              MsgInstallLong,
		Example:           MsgInstallExample,
		GroupID:           "core",
		Args:              exactlyOneFormula,
		ValidArgsFunction: formulaNamesCompletion(g),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.install")
			out := cmd.OutOrStdout()

			// A dry run only reads and takes no lock.
			var (
				a      *app
				unlock = func() {}
				err    error
			)
			if dryRun {
				a, err = loadApp(g)
			} else {
				a, unlock, err = loadAppLocked(g)
			}
			if err != nil {
				return err
			}
			defer unlock()

			f, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			runTests := a.cfg.Install.Tests && !skipTest
			logger.Info().
				Str("formula", f.Name).
				Bool("dry_run", dryRun).
				Bool("tests", runTests).
				Msg("Starting install")

			if dryRun {
				steps, err := a.installer(nil, runTests).Plan(f, a.registry)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, style.RenderPlan(f.Name, steps))
				return nil
			}

			var live io.Writer
			if g.verbosity > 0 {
				live = cmd.ErrOrStderr()
			}
			res, err := a.installer(live, runTests).Install(f, a.registry)
			if res != nil {
				fmt.Fprintln(out, style.RenderResult(res))
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)
	cmd.Flags().BoolVar(&skipTest, "skip-test", false, MsgFlagSkipTest)
	return cmd
}

func newTestCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "test <formula>",
		Short:             MsgTestShort,
		GroupID:           "core",
		Args:              exactlyOneFormula,
		ValidArgsFunction: formulaNamesCompletion(g),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, unlock, err := loadAppLocked(g)
			if err != nil {
				return err
			}
			defer unlock()

			f, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			var live io.Writer
			if g.verbosity > 0 {
				live = cmd.ErrOrStderr()
			}
			if _, err := a.installer(live, true).RunTest(f, a.registry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgTestPassed, f.Name)
			return nil
		},
	}
}
