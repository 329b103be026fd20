// Package installer installs formulas.
//
// An install walks the declared dependencies depth-first in order, installing
// each one that is not already installed, then verifies the formula's source
// archive against its checksum, runs the install command and finally the
// optional test command:
//
//	Unresolved -> DependenciesResolving -> IntegrityVerifying -> Installing
//	           -> [TestVerifying] -> Installed
//
// Any failure moves the formula to Failed and aborts the whole walk. The
// returned error carries the chain of formula names from the requested
// formula down to the one whose own step failed. Nothing is retried and
// nothing is rolled back: dependencies installed before the failure stay
// installed, and a failing test command leaves the formula installed.
//
// The archive fetcher and the command runner are collaborators passed in
// through Options so the walk can be exercised without network or processes.
package installer
