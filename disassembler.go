package vulnscan

import (
	"bufio"
	"os/exec"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// funcHeaderPattern matches an objdump function header line:
//
//	0000000000401136 <main>:
var funcHeaderPattern = regexp.MustCompile(`^([0-9a-fA-F]+)\s+<([^>]+)>:`)

// insnPattern matches an objdump instruction line:
//
//	  401136:	55                   	push   %rbp
var insnPattern = regexp.MustCompile(`^\s*([0-9a-fA-F]+):\s*(?:[0-9a-fA-F]{2}\s+)+(\S+)\s*(.*)$`)

// Disassembler invokes the platform disassembler (objdump) and parses its
// textual output into a normalized list of Functions.
type Disassembler struct {
	// Command overrides the disassembler binary invoked (default
	// "objdump").
	Command string
}

// Parse disassembles binaryPath and returns its functions in disassembly
// order. A subprocess spawn failure is logged and yields an empty slice;
// it is never returned as an error — the caller
// distinguishes "no vulnerabilities" from "disassembler failure" only by
// whether the returned slice is empty for a non-empty binary.
func (d Disassembler) Parse(binaryPath string) []Function {
	cmd := d.Command
	if cmd == "" {
		cmd = "objdump"
	}

	out, err := runDisassembler(cmd, binaryPath)
	if err != nil {
		logrus.WithError(err).WithField("binary", binaryPath).Warn("vulnscan: disassembler spawn failed")
		return nil
	}

	return parseDisassembly(out)
}

func runDisassembler(command, binaryPath string) (string, error) {
	c := exec.Command(command, "-d", binaryPath)
	out, err := c.Output()
	if err != nil {
		return "", errors.Wrapf(err, "running %s -d %s", command, binaryPath)
	}
	return string(out), nil
}

// parseDisassembly applies the function-header and instruction line patterns to dump,
// a block of objdump -d output. Unrecognized lines (banners, section
// markers, blank lines, string annotations) are silently skipped; a
// malformed line never aborts the parse. Lines before the first function
// header are dropped.
func parseDisassembly(dump string) []Function {
	var funcs []Function
	var current *Function

	scanner := bufio.NewScanner(strings.NewReader(dump))
	// objdump lines (disassembly + operands) can be long; raise the
	// default token limit rather than truncating the parse.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if m := funcHeaderPattern.FindStringSubmatch(line); m != nil {
			funcs = append(funcs, Function{
				MangledName:  m[2],
				StartAddress: canonicalizeAddress(m[1]),
			})
			current = &funcs[len(funcs)-1]
			continue
		}

		if current == nil {
			continue
		}

		if m := insnPattern.FindStringSubmatch(line); m != nil {
			current.Instructions = append(current.Instructions, Instruction{
				Address:  canonicalizeAddress(m[1]),
				Mnemonic: strings.ToLower(m[2]),
				Operands: strings.TrimSpace(collapseSpaces(m[3])),
			})
		}
	}

	return funcs
}

var spaceRunPattern = regexp.MustCompile(`\s+`)

func collapseSpaces(s string) string {
	return spaceRunPattern.ReplaceAllString(s, " ")
}
