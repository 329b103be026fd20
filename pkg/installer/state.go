package installer

// State is the lifecycle position of one formula during an install.
type State int

const (
	StateUnresolved State = iota
	StateDependenciesResolving
	StateIntegrityVerifying
	StateInstalling
	StateTestVerifying
	StateInstalled
	StateFailed
)

var stateNames = map[State]string{
	StateUnresolved:            "unresolved",
	StateDependenciesResolving: "resolving-dependencies",
	StateIntegrityVerifying:    "verifying-integrity",
	StateInstalling:            "installing",
	StateTestVerifying:         "testing",
	StateInstalled:             "installed",
	StateFailed:                "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateInstalled || s == StateFailed
}
