package formulary

import (
	"fmt"
	"time"

	"github.com/arthur-debert/formulary/pkg/style"
	"github.com/spf13/cobra"
)

func newListCmd(g *globalOptions) *cobra.Command {
	var installedOnly bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   MsgListShort,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			a, err := loadApp(g)
			if err != nil {
				return err
			}

			if installedOnly {
				receipts, err := a.receipts.List()
				if err != nil {
					return err
				}
				if len(receipts) == 0 {
					fmt.Fprintln(out, MsgNothingInstalled)
					return nil
				}
				for _, r := range receipts {
					fmt.Fprintf(out, MsgInstalledItem, r.Name, r.Version, r.InstalledAt.Local().Format(time.DateTime))
				}
				return nil
			}

			all := a.registry.All()
			if len(all) == 0 {
				fmt.Fprintln(out, MsgNoFormulas)
				return nil
			}
			for _, f := range all {
				marker := " "
				if a.registry.IsInstalled(f.Name) {
					marker = style.SuccessStyle.Render("✓")
				}
				fmt.Fprintf(out, MsgFormulaItem, marker, f.Name, f.Version)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&installedOnly, "installed", false, MsgFlagInstalled)
	return cmd
}

func newInfoCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "info <formula>",
		Short:             MsgInfoShort,
		GroupID:           "core",
		Args:              exactlyOneFormula,
		ValidArgsFunction: formulaNamesCompletion(g),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(g)
			if err != nil {
				return err
			}
			f, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), style.RenderFormulaCard(style.FormulaInfo{
				Formula:    f,
				Installed:  a.registry.IsInstalled(f.Name),
				Dependents: a.registry.Dependents(f.Name),
			}))
			return nil
		},
	}
}
