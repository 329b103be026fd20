package formulary

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/arthur-debert/formulary/internal/version"
	"github.com/arthur-debert/formulary/pkg/cobrax/topics"
	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/logging"
	"github.com/arthur-debert/formulary/pkg/style"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//go:embed topics
var topicFiles embed.FS

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "formulary",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(g.verbosity, uuid.NewString())
			style.Setup(os.Stdout)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.ErrInvalidInput, "no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&g.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&g.configFile, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringArrayVar(&g.formulaDirs, "formula-dir", nil, MsgFlagFormulaDir)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Wrap(err, errors.ErrInvalidInput, "invalid flags")
	})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newInstallCmd(g))
	rootCmd.AddCommand(newTestCmd(g))
	rootCmd.AddCommand(newListCmd(g))
	rootCmd.AddCommand(newInfoCmd(g))
	rootCmd.AddCommand(newCheckCmd(g))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	sub, err := fs.Sub(topicFiles, "topics")
	if err == nil {
		var renderer topics.Renderer = &topics.PlainRenderer{}
		if style.IsTerminal(os.Stdout) {
			renderer = topics.NewGlamourRenderer()
		}
		if m, err := topics.New(sub, topics.Options{Renderer: renderer}); err == nil {
			topics.Install(rootCmd, m)
		}
	}

	return rootCmd
}

// exactlyOneFormula validates a single formula name argument.
func exactlyOneFormula(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.Newf(errors.ErrInvalidInput, "%s takes exactly one formula name, got %d", cmd.Name(), len(args))
	}
	return nil
}

// formulaNamesCompletion completes formula names from the configured
// formula directories.
func formulaNamesCompletion(g *globalOptions) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		a, err := loadApp(g)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return a.registry.Names(), cobra.ShellCompDirectiveNoFileComp
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

