package vulnscan

import (
	"regexp"
	"strings"
)

// safeFunctions are never flagged by the Unsafe Call Detector.
var safeFunctions = map[string]bool{
	"puts": true, "printf": true, "fprintf": true, "fwrite": true, "write": true,
	"strlen": true, "strcmp": true, "strncmp": true, "memcmp": true,
	"malloc": true, "free": true, "fopen": true, "fclose": true,
	"exit": true, "_exit": true, "abort": true,
	"getpid": true, "getuid": true, "getgid": true, "time": true, "clock": true,
}

// highRiskFunctions are always flagged HIGH.
var highRiskFunctions = map[string]bool{
	"gets": true, "strcpy": true, "strcat": true, "sprintf": true,
	"vsprintf": true, "scanf": true, "sscanf": true, "fscanf": true,
}

// mediumRiskFunctions are flagged MEDIUM only when isLikelyVulnerable
// returns true.
var mediumRiskFunctions = map[string]bool{
	"strncpy": true, "strncat": true, "snprintf": true, "vsnprintf": true,
	"memcpy": true, "memmove": true, "fgets": true, "getchar": true,
}

// lowRiskWatchlist is the broader legacy set; flagged LOW only when
// isLikelyVulnerable returns true.
var lowRiskWatchlist = map[string]bool{
	"wcscpy": true, "wcscat": true, "swprintf": true,
	"readlink": true, "getwd": true, "realpath": true, "syslog": true,
}

// unsafeDetailByTarget holds the fixed reason string for each target that
// has a specific one; targets without an entry fall back to the generic
// "Potentially unsafe function call" detail (see
// original_source/src/UnsafeDetector.cpp generateDetailedAnalysis).
var unsafeDetailByTarget = map[string]string{
	"gets":     "gets() doesn't check buffer bounds",
	"strcpy":   "strcpy() doesn't check destination size",
	"strcat":   "strcat() doesn't check destination size",
	"sprintf":  "sprintf() doesn't check buffer size",
	"vsprintf": "sprintf() doesn't check buffer size",
	"scanf":    "scanf family can overflow buffers",
	"sscanf":   "scanf family can overflow buffers",
	"fscanf":   "scanf family can overflow buffers",
	"memcpy":   "Memory copy without bounds checking",
	"memmove":  "Memory copy without bounds checking",
}

var targetPattern = regexp.MustCompile(`<([^>@]+)(?:@plt)?>`)
var pltDirectPattern = regexp.MustCompile(`(\w+)@plt`)

// extractCalledTarget pulls the called function's name out of a call
// instruction's operands, stripping any "@plt" suffix.
func extractCalledTarget(operands string) (string, bool) {
	if m := targetPattern.FindStringSubmatch(operands); m != nil {
		return m[1], true
	}
	if m := pltDirectPattern.FindStringSubmatch(operands); m != nil {
		return m[1], true
	}
	return "", false
}

// UnsafeCallDetector flags call sites to misuse-prone C-library functions
// and assigns each a risk level.
type UnsafeCallDetector struct {
	Demangler Demangler
}

// Detect runs the Unsafe Call Detector over funcs.
func (d UnsafeCallDetector) Detect(funcs []Function) []Finding {
	var out []Finding

	for _, f := range funcs {
		if strings.Contains(f.MangledName, "@plt") {
			continue
		}

		displayName := enclosingFuncName(d.Demangler, f)
		ctx := AnalyzeContext(f)

		for _, ins := range f.Instructions {
			if ins.Mnemonic != "call" && ins.Mnemonic != "callq" {
				continue
			}

			target, ok := extractCalledTarget(ins.Operands)
			if !ok || target == "" {
				continue
			}

			if safeFunctions[target] {
				continue
			}

			risk, flagged := classify(f, ins, target, ctx)
			if !flagged {
				continue
			}

			out = append(out, Finding{
				Class:     ClassUnsafeCall,
				FuncName:  displayName,
				FuncStart: f.StartAddress,
				InstrAddr: displayAddress(ins.Address),
				Mnemonic:  ins.Mnemonic,
				Target:    target,
				Detail:    unsafeDetail(risk, target),
				RiskLevel: risk,
			})
		}
	}

	return out
}

// classify decides whether target is unsafe in this call context and, if
// so, its risk level.
func classify(f Function, ins Instruction, target string, ctx map[string]uint64) (RiskLevel, bool) {
	if highRiskFunctions[target] {
		return RiskHigh, true
	}
	if mediumRiskFunctions[target] {
		if isLikelyVulnerable(f, ins, target, ctx) {
			return RiskMedium, true
		}
		return "", false
	}
	if lowRiskWatchlist[target] {
		if isLikelyVulnerable(f, ins, target, ctx) {
			return RiskLow, true
		}
		return "", false
	}
	return "", false
}

// isLikelyVulnerable implements a size-sensitivity heuristic. The default
// for unrecognized names, and for indeterminate heuristic inputs, is to
// not flag (false-negative bias is preferred over false-positive noise).
func isLikelyVulnerable(f Function, ins Instruction, target string, _ map[string]uint64) bool {
	switch target {
	case "gets", "scanf", "sprintf":
		return true
	case "strncpy", "strncat", "snprintf":
		return hasSuspiciousSizeImmediate(f, ins)
	case "memcpy", "memmove":
		return true
	case "fgets":
		return false
	default:
		return false
	}
}

// hasSuspiciousSizeImmediate inspects up to the five instructions
// immediately preceding ins for a mov into %rdx/%rcx whose source is an
// immediate N with N > 1000 or N a multiple of 100.
func hasSuspiciousSizeImmediate(f Function, ins Instruction) bool {
	idx := -1
	for i, candidate := range f.Instructions {
		if candidate.Address == ins.Address {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	start := idx - 5
	if start < 0 {
		start = 0
	}

	for i := idx - 1; i >= start; i-- {
		prev := f.Instructions[i]
		if prev.Mnemonic != "mov" || !destinesArgRegister(prev.Operands) {
			continue
		}
		n, ok := extractDecimalImmediate(prev.Operands)
		if !ok {
			continue
		}
		if n > 1000 || n%100 == 0 {
			return true
		}
	}
	return false
}

func unsafeDetail(risk RiskLevel, target string) string {
	reason, ok := unsafeDetailByTarget[target]
	if !ok {
		reason = "Potentially unsafe function call"
	}
	return "Risk: " + string(risk) + " - " + reason
}

// enclosingFuncName resolves a Function's display name for a Finding:
// the demangled name, or empty when demangling yielded no new
// information (unchanged input, or the ".text" section pseudo-name).
func enclosingFuncName(dem Demangler, f Function) string {
	name := dem.Demangle(f.MangledName)
	if name == f.MangledName || name == ".text" || name == "" {
		return ""
	}
	return name
}
