package vulnscan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var immediateAnyPattern = regexp.MustCompile(`0[xX][0-9A-Fa-f]+|\d+`)

// copyFunctions are the bounded-copy call targets the Heap Overflow
// Detector checks against the most recently tracked allocation.
var copyFunctions = []string{"memcpy", "memmove", "strcpy", "strncpy"}

type heapAllocation struct {
	size uint64
	site string // canonical address of the allocation's call instruction
}

// HeapOverflowDetector tracks heap allocations within a function and
// flags copy calls whose constant copy-size exceeds the tracked
// allocation size.
type HeapOverflowDetector struct {
	Demangler Demangler
}

// Detect runs the Heap Overflow Detector over funcs.
func (d HeapOverflowDetector) Detect(funcs []Function) []Finding {
	var out []Finding

	for _, f := range funcs {
		displayName := enclosingFuncName(d.Demangler, f)

		// Track allocations: a one-slot shadow keyed by "RAX", the
		// allocation's return-value register. A later allocation
		// overwrites an earlier one.
		var current *heapAllocation

		for i := 0; i+1 < len(f.Instructions); i++ {
			ins := f.Instructions[i]
			next := f.Instructions[i+1]

			if ins.Mnemonic != "mov" || (next.Mnemonic != "call" && next.Mnemonic != "callq") {
				continue
			}

			var size uint64
			var ok bool

			switch {
			case strings.Contains(next.Operands, "malloc"):
				size, ok = parseImmediate(ins.Operands)
			case strings.Contains(next.Operands, "calloc") && i > 0:
				// calloc(nmemb, size): the two size-bearing movs are this
				// one (the second argument, immediately before the call)
				// and the one before it (the first argument).
				n1, ok1 := parseImmediate(f.Instructions[i-1].Operands)
				n2, ok2 := parseImmediate(ins.Operands)
				if ok1 && ok2 {
					size, ok = n1*n2, true
				}
			}

			if ok && size > 0 {
				current = &heapAllocation{size: size, site: next.Address}
			}
		}

		for i, ins := range f.Instructions {
			addr := displayAddress(ins.Address)

			if ins.Mnemonic == "call" || ins.Mnemonic == "callq" {
				target := matchingCopyFunction(ins.Operands)
				if target == "" {
					continue
				}
				// The call's own operands carry the jump target, not the
				// copy size; the size argument is the immediate loaded by
				// the mov immediately preceding the call (the same
				// adjacency pattern used for allocation tracking above).
				if i == 0 {
					continue
				}
				copySize, ok := parseImmediate(f.Instructions[i-1].Operands)
				if !ok {
					continue
				}

				allocSize := uint64(0)
				if current != nil {
					allocSize = current.size
				}

				if copySize > allocSize {
					detail := fmt.Sprintf("%s at %s copies %d bytes into buffer of size %d",
						target, addr, copySize, allocSize)
					out = append(out, Finding{
						Class:     ClassHeapOverflow,
						FuncName:  displayName,
						FuncStart: f.StartAddress,
						InstrAddr: addr,
						Mnemonic:  ins.Mnemonic,
						Target:    target,
						Detail:    detail,
					})
				}
				continue
			}

			if ins.Mnemonic == "rep" && (strings.Contains(ins.Operands, "stosb") || strings.Contains(ins.Operands, "movsb")) {
				site := "unknown"
				if current != nil {
					site = displayAddress(current.site)
				}
				detail := fmt.Sprintf("repeat string operation at %s may overflow heap buffer allocated at %s", addr, site)
				out = append(out, Finding{
					Class:     ClassHeapOverflow,
					FuncName:  displayName,
					FuncStart: f.StartAddress,
					InstrAddr: addr,
					Mnemonic:  ins.Mnemonic,
					Target:    "rep",
					Detail:    detail,
				})
			}
		}
	}

	return out
}

func matchingCopyFunction(operands string) string {
	for _, fn := range copyFunctions {
		if strings.Contains(operands, fn) {
			return fn
		}
	}
	return ""
}

// parseImmediate extracts the first 0x<hex> or bare decimal literal from
// operands.
func parseImmediate(operands string) (uint64, bool) {
	m := immediateAnyPattern.FindString(operands)
	if m == "" {
		return 0, false
	}
	base := 10
	if strings.HasPrefix(strings.ToLower(m), "0x") {
		base = 16
		m = m[2:]
	}
	v, err := strconv.ParseUint(m, base, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
