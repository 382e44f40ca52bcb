package vulnscan

import (
	"fmt"
	"strings"
)

// execWatchlist are the process-spawning functions the Command Injection
// Detector flags, checked in order against a call's raw operands as a
// substring match; the first watchlist entry found wins, so a call to
// e.g. execve@plt is reported against "execv" (the shorter entry occurs
// first in both the list and the operand text).
var execWatchlist = []string{
	"system", "popen",
	"execl", "execle", "execlp",
	"execv", "execve", "execvp", "execvpe",
}

// CommandInjectionDetector flags any call site that targets a
// process-spawning function.
type CommandInjectionDetector struct {
	Demangler Demangler
}

// Detect runs the Command Injection Detector over funcs.
func (d CommandInjectionDetector) Detect(funcs []Function) []Finding {
	var out []Finding

	for _, f := range funcs {
		displayName := enclosingFuncName(d.Demangler, f)

		for _, ins := range f.Instructions {
			if ins.Mnemonic != "call" && ins.Mnemonic != "callq" {
				continue
			}

			target := matchingExecFunction(ins.Operands)
			if target == "" {
				continue
			}

			addr := displayAddress(ins.Address)
			out = append(out, Finding{
				Class:     ClassCommandInjection,
				FuncName:  displayName,
				FuncStart: f.StartAddress,
				InstrAddr: addr,
				Mnemonic:  ins.Mnemonic,
				Target:    target,
				Detail:    fmt.Sprintf("Call to `%s` at %s can lead to command injection risks.", target, addr),
			})
		}
	}

	return out
}

// matchingExecFunction returns the first execWatchlist entry that occurs
// as a substring of operands, or "" if none does.
func matchingExecFunction(operands string) string {
	for _, fn := range execWatchlist {
		if strings.Contains(operands, fn) {
			return fn
		}
	}
	return ""
}
