package formulary

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	MsgRootShort       = "Install packages from formula files"
	MsgInstallShort    = "Install a formula and its dependencies"
	MsgTestShort       = "Run the test command of an installed formula"
	MsgListShort       = "List known formulas"
	MsgInfoShort       = "Show details about a formula"
	MsgCheckShort      = "Validate every formula file"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgNoFormulas       = "No formulas found."
	MsgNothingInstalled = "No formulas installed."
	MsgInstalledItem    = "%-20s %-12s %s\n"
	MsgFormulaItem      = "%s %-20s %s\n"
	MsgCheckOK          = "%d formulas OK\n"
	MsgCheckMissing     = "%s: missing dependency %q\n"
	MsgTestPassed       = "%s: test passed\n"
	MsgVersionFormat    = "formulary version %s\n  commit: %s\n  built:  %s\n"

	// Flag descriptions
	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig     = "Configuration file (default $XDG_CONFIG_HOME/formulary/config.toml)"
	MsgFlagFormulaDir = "Directory of formula files, repeatable (overrides formula.dirs)"
	MsgFlagDryRun     = "Show the install plan without fetching or running anything"
	MsgFlagSkipTest   = "Do not run test commands"
	MsgFlagInstalled  = "List installed formulas with their receipts"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/install-long.txt
	msgInstallLongRaw string
	MsgInstallLong    = strings.TrimSpace(msgInstallLongRaw)

	//go:embed msgs/install-example.txt
	msgInstallExampleRaw string
	MsgInstallExample    = strings.TrimRight(msgInstallExampleRaw, "\n")

	//go:embed msgs/check-long.txt
	msgCheckLongRaw string
	MsgCheckLong    = strings.TrimSpace(msgCheckLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
