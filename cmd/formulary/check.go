package formulary

import (
	"fmt"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/spf13/cobra"
)

func newCheckCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "check",
		Short:   MsgCheckShort,
		Long:    MsgCheckLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			// Parse errors, duplicates and cycles fail the load itself.
			a, err := loadApp(g)
			if err != nil {
				return err
			}

			var missing []string
			for _, f := range a.registry.All() {
				for _, dep := range f.Dependencies {
					if _, ok := a.registry.Lookup(dep); ok || a.registry.IsProvided(dep) {
						continue
					}
					fmt.Fprintf(out, MsgCheckMissing, f.Name, dep)
					missing = append(missing, f.Name+" -> "+dep)
				}
			}
			if len(missing) > 0 {
				return errors.Newf(errors.ErrMissingDependency, "%d unresolved dependencies", len(missing)).
					WithDetail("missing", missing)
			}

			fmt.Fprintf(out, MsgCheckOK, len(a.formulas))
			return nil
		},
	}
}
