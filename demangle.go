package vulnscan

import "github.com/ianlancetaylor/demangle"

// Demangler converts a mangled C++ symbol into a human-readable name.
// The zero value is ready to use. Demangle never errors and returns name
// unchanged whenever it cannot produce a more informative name, so no
// c++filt subprocess is spawned here.
type Demangler struct{}

// Demangle returns a readable form of name, or name itself if it cannot
// be demangled.
func (Demangler) Demangle(name string) string {
	return demangle.Filter(name)
}
