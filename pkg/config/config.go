package config

import "time"

// Config is the fully merged configuration.
type Config struct {
	Formula  Formula  `koanf:"formula"`
	Registry Registry `koanf:"registry"`
	Install  Install  `koanf:"install"`
	Fetch    Fetch    `koanf:"fetch"`
	State    Dir      `koanf:"state"`
	Cache    Dir      `koanf:"cache"`
}

// Formula configures where descriptors are loaded from.
type Formula struct {
	Dirs []string `koanf:"dirs"`
}

// Registry configures the installed set.
type Registry struct {
	Provided []string `koanf:"provided"`
}

// Install configures command execution.
type Install struct {
	Shell string `koanf:"shell"`
	Tests bool   `koanf:"tests"`
}

// Fetch configures archive downloads.
type Fetch struct {
	Timeout time.Duration `koanf:"timeout"`
	Agent   string        `koanf:"agent"`
}

// Dir overrides a base directory.
type Dir struct {
	Dir string `koanf:"dir"`
}
