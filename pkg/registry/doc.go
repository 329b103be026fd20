// Package registry holds the known formulas and the set of names currently
// installed. It is the object the installer resolves dependencies against
// and records installs into.
//
// A generic, thread-safe name registry (Registry[T]) backs the formula
// lookup table; Formulas layers the installed set, host-provided names and
// load-time cycle detection on top of it.
package registry
