// Package config loads formulary's layered configuration.
//
// Layers, later ones winning:
//
//  1. embedded/defaults.toml
//  2. the user configuration file (TOML or YAML)
//  3. FORMULARY_* environment variables, with "_" mapped to "."
//     (FORMULARY_INSTALL_SHELL sets install.shell)
//  4. explicit overrides from command line flags
package config
