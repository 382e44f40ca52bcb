package vulnscan

import (
	"regexp"
	"strconv"
	"strings"
)

// Context fact keys produced by AnalyzeContext.
const (
	ctxStack = "stack"
	ctxArg   = "arg"
)

var (
	hexImmediatePattern = regexp.MustCompile(`\$0[xX]([0-9a-fA-F]+)`)
	decImmediatePattern = regexp.MustCompile(`\$(\d+)\b`)
)

// argRegisters are the third and fourth integer-argument registers under
// the x86-64 SysV ABI.
var argRegisters = []string{"%rdx", "%rcx"}

// AnalyzeContext is the Context Analyzer's single pre-pass over a
// function's instructions. It produces advisory size facts; a fact's
// absence means "unknown", never zero.
func AnalyzeContext(fn Function) map[string]uint64 {
	facts := make(map[string]uint64)

	for _, ins := range fn.Instructions {
		if ins.Mnemonic == "sub" && strings.Contains(ins.Operands, "%rsp") {
			if size, ok := extractImmediate(ins.Operands); ok {
				facts[ctxStack] = size
			}
			continue
		}

		if ins.Mnemonic == "mov" && destinesArgRegister(ins.Operands) {
			if size, ok := extractDecimalImmediate(ins.Operands); ok && size < 10000 {
				facts[ctxArg] = size
			}
		}
	}

	return facts
}

func destinesArgRegister(operands string) bool {
	for _, reg := range argRegisters {
		if strings.Contains(operands, reg) {
			return true
		}
	}
	return false
}

// extractImmediate pulls a $0x<hex> or $<dec> immediate out of operands,
// preferring the hex form. Used for the "stack" context fact, which
// accepts either form.
func extractImmediate(operands string) (uint64, bool) {
	if m := hexImmediatePattern.FindStringSubmatch(operands); m != nil {
		v, err := strconv.ParseUint(m[1], 16, 64)
		if err == nil {
			return v, true
		}
	}
	return extractDecimalImmediate(operands)
}

// extractDecimalImmediate pulls a $<dec> immediate out of operands. Used
// for the "arg" context fact and the unsafe-call size heuristic, both of
// which accept only a decimal immediate.
func extractDecimalImmediate(operands string) (uint64, bool) {
	if m := decImmediatePattern.FindStringSubmatch(operands); m != nil {
		v, err := strconv.ParseUint(m[1], 10, 64)
		if err == nil {
			return v, true
		}
	}
	return 0, false
}
