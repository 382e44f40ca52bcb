package vulnscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCallFunc(name, startAddr string, pre []Instruction, callAddr, callOperands string) Function {
	insns := append([]Instruction{}, pre...)
	insns = append(insns, Instruction{Address: callAddr, Mnemonic: "call", Operands: callOperands})
	return Function{MangledName: name, StartAddress: startAddr, Instructions: insns}
}

func TestUnsafeDetectorGetsIsHighRisk(t *testing.T) {
	fn := newCallFunc("vulnerable", "401100", nil, "4011a0", "<gets@plt>")
	findings := UnsafeCallDetector{}.Detect([]Function{fn})

	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, "gets", f.Target)
	assert.Equal(t, RiskHigh, f.RiskLevel)
	assert.Equal(t, "0x0000004011a0", f.InstrAddr)
}

func TestUnsafeDetectorStrncpyLargeLiteralIsMedium(t *testing.T) {
	pre := []Instruction{{Address: "401130", Mnemonic: "mov", Operands: "$4096,%rdx"}}
	fn := newCallFunc("copier", "401100", pre, "401136", "<strncpy@plt>")

	findings := UnsafeCallDetector{}.Detect([]Function{fn})
	require.Len(t, findings, 1)
	assert.Equal(t, RiskMedium, findings[0].RiskLevel)
}

func TestUnsafeDetectorStrncpySmallLiteralIsNotFlagged(t *testing.T) {
	pre := []Instruction{{Address: "401130", Mnemonic: "mov", Operands: "$16,%rdx"}}
	fn := newCallFunc("copier", "401100", pre, "401136", "<strncpy@plt>")

	findings := UnsafeCallDetector{}.Detect([]Function{fn})
	assert.Empty(t, findings)
}

func TestUnsafeDetectorSafeSetNeverFlagged(t *testing.T) {
	for name := range safeFunctions {
		fn := newCallFunc("f", "401100", nil, "401110", "<"+name+"@plt>")
		findings := UnsafeCallDetector{}.Detect([]Function{fn})
		assert.Emptyf(t, findings, "safe function %s was flagged", name)
	}
}

func TestUnsafeDetectorPLTEnclosingFunctionSuppressed(t *testing.T) {
	fn := newCallFunc("gets@plt", "401100", nil, "401110", "<strcpy@plt>")
	findings := UnsafeCallDetector{}.Detect([]Function{fn})
	assert.Empty(t, findings, "expected no findings for @plt-named enclosing function")
}

func TestUnsafeDetectorTargetMustBeNonEmpty(t *testing.T) {
	fn := newCallFunc("f", "401100", nil, "401110", "no angle brackets here")
	findings := UnsafeCallDetector{}.Detect([]Function{fn})
	assert.Empty(t, findings, "expected no findings when target cannot be extracted")
}

func TestUnsafeDetectorRiskLevelMonotonicity(t *testing.T) {
	funcs := []Function{
		newCallFunc("a", "401100", nil, "401110", "<gets@plt>"),
		newCallFunc("b", "401200", []Instruction{{Address: "401230", Mnemonic: "mov", Operands: "$4096,%rdx"}}, "401236", "<strncpy@plt>"),
		newCallFunc("c", "401300", nil, "401310", "<readlink@plt>"),
	}
	findings := UnsafeCallDetector{}.Detect(funcs)

	for _, f := range findings {
		switch f.RiskLevel {
		case RiskHigh:
			assert.Truef(t, highRiskFunctions[f.Target], "HIGH finding target %q not in high-risk set", f.Target)
		case RiskMedium:
			assert.Truef(t, mediumRiskFunctions[f.Target], "MEDIUM finding target %q not in medium-risk set", f.Target)
		case RiskLow:
			overlaps := safeFunctions[f.Target] || highRiskFunctions[f.Target] || mediumRiskFunctions[f.Target]
			assert.Falsef(t, overlaps, "LOW finding target %q overlaps a stricter set", f.Target)
		}
	}
}

func TestUnsafeDetectorZeroInstructionsYieldsNoFindings(t *testing.T) {
	fn := Function{MangledName: "empty", StartAddress: "401100"}
	assert.Empty(t, UnsafeCallDetector{}.Detect([]Function{fn}))
}
