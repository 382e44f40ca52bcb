package vulnscan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePutsOnlyFunction() Function {
	return Function{
		MangledName:  "main",
		StartAddress: "401100",
		Instructions: []Instruction{
			{Address: "401110", Mnemonic: "call", Operands: "401020 <puts@plt>"},
		},
	}
}

func TestReportNoVulnerabilitiesSummaryLine(t *testing.T) {
	funcs := []Function{samplePutsOnlyFunction()}
	unsafe := UnsafeCallDetector{}.Detect(funcs)
	heap := HeapOverflowDetector{}.Detect(funcs)
	cmd := CommandInjectionDetector{}.Detect(funcs)
	require.Empty(t, unsafe)
	require.Empty(t, heap)
	require.Empty(t, cmd)

	report := BuildReport(unsafe, heap, cmd)
	text := report.String()

	assert.Contains(t, text, "Total issues found: 0")
	assert.Contains(t, text, "No unsafe function calls detected")
	assert.Contains(t, text, "No heap overflow vulnerabilities detected")
	assert.Contains(t, text, "No command injection vulnerabilities detected")
}

func TestReportGroupsByRiskLevelAndDedups(t *testing.T) {
	findings := []Finding{
		{Class: ClassUnsafeCall, Target: "strcpy", Detail: "Risk: HIGH - strcpy() doesn't check destination size", RiskLevel: RiskHigh, InstrAddr: "0x000000401110"},
		{Class: ClassUnsafeCall, Target: "strcpy", Detail: "Risk: HIGH - strcpy() doesn't check destination size", RiskLevel: RiskHigh, InstrAddr: "0x000000401120"},
		{Class: ClassUnsafeCall, Target: "memcpy", Detail: "Risk: MEDIUM - Memory copy without bounds checking", RiskLevel: RiskMedium, InstrAddr: "0x000000401130"},
	}

	report := BuildReport(findings, nil, nil)
	text := report.String()

	highIdx := strings.Index(text, "[HIGH RISK]")
	mediumIdx := strings.Index(text, "[MEDIUM RISK]")
	require.True(t, highIdx >= 0 && mediumIdx >= 0, "expected both risk sections present:\n%s", text)
	assert.Less(t, highIdx, mediumIdx, "expected HIGH section before MEDIUM section")

	assert.Equal(t, 1, strings.Count(text, "Calls    : strcpy"), "expected strcpy findings deduplicated to one group")
	assert.Contains(t, text, "0x000000401110, 0x000000401120")
}

func TestReportTotalIssues(t *testing.T) {
	report := BuildReport(
		[]Finding{{Target: "gets"}},
		[]Finding{{Target: "memcpy"}, {Target: "strcpy"}},
		nil,
	)
	assert.Equal(t, 3, report.TotalIssues())
}
