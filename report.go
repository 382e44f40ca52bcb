package vulnscan

import (
	"fmt"
	"strings"
)

// Report is the aggregated, rendered result of a scan.
type Report struct {
	UnsafeCallFindings       []Finding
	HeapOverflowFindings     []Finding
	CommandInjectionFindings []Finding
}

// TotalIssues returns the number of findings across all three classes.
func (r Report) TotalIssues() int {
	return len(r.UnsafeCallFindings) + len(r.HeapOverflowFindings) + len(r.CommandInjectionFindings)
}

// riskOrder fixes the HIGH -> MEDIUM -> LOW display order for the
// buffer-overflow section.
var riskOrder = []RiskLevel{RiskHigh, RiskMedium, RiskLow}

// BuildReport aggregates findings from the three detectors into a
// Report. Findings inside each detector are assumed to already be in
// instruction-stream order.
func BuildReport(unsafe, heap, cmd []Finding) Report {
	return Report{
		UnsafeCallFindings:       unsafe,
		HeapOverflowFindings:     heap,
		CommandInjectionFindings: cmd,
	}
}

// String renders the report as text with four sections: BUFFER OVERFLOW
// ANALYSIS, HEAP OVERFLOW ANALYSIS, COMMAND INJECTION ANALYSIS, SUMMARY.
func (r Report) String() string {
	var b strings.Builder

	writeSectionHeader(&b, "BUFFER OVERFLOW ANALYSIS")
	writeUnsafeSection(&b, r.UnsafeCallFindings)

	writeSectionHeader(&b, "HEAP OVERFLOW ANALYSIS")
	writeHeapSection(&b, r.HeapOverflowFindings)

	writeSectionHeader(&b, "COMMAND INJECTION ANALYSIS")
	writeCommandInjectionSection(&b, r.CommandInjectionFindings)

	writeSectionHeader(&b, "SUMMARY")
	writeSummary(&b, r)

	return b.String()
}

func writeSectionHeader(b *strings.Builder, title string) {
	sep := strings.Repeat("=", 60)
	fmt.Fprintf(b, "\n%s\n %s\n%s\n", sep, title, sep)
}

type findingGroup struct {
	target string
	detail string
	addrs  []string
}

func writeUnsafeSection(b *strings.Builder, findings []Finding) {
	if len(findings) == 0 {
		fmt.Fprintln(b, "✓ No unsafe function calls detected.")
		return
	}

	byRisk := make(map[RiskLevel][]Finding)
	for _, f := range findings {
		byRisk[f.RiskLevel] = append(byRisk[f.RiskLevel], f)
	}

	for _, risk := range riskOrder {
		group := byRisk[risk]
		if len(group) == 0 {
			continue
		}

		groups := dedupByTargetAndDetail(group)
		fmt.Fprintf(b, "\n[%s RISK] Found %d issue(s):\n", risk, len(group))
		fmt.Fprintln(b, strings.Repeat("-", 50))

		for _, g := range groups {
			fmt.Fprintf(b, "   Calls    : %s\n", g.target)
			fmt.Fprintf(b, "   Analysis : %s\n", g.detail)
			fmt.Fprintf(b, "   Addresses: %s\n\n", strings.Join(g.addrs, ", "))
		}
	}
}

func writeHeapSection(b *strings.Builder, findings []Finding) {
	if len(findings) == 0 {
		fmt.Fprintln(b, "✓ No heap overflow vulnerabilities detected.")
		return
	}

	for _, f := range findings {
		if f.FuncName != "" {
			fmt.Fprintf(b, "   Potential heap overflow in '%s':\n", f.FuncName)
		}
		fmt.Fprintf(b, "   Address: %s\n", f.InstrAddr)
		fmt.Fprintf(b, "   Detail : %s\n\n", f.Detail)
	}
}

func writeCommandInjectionSection(b *strings.Builder, findings []Finding) {
	if len(findings) == 0 {
		fmt.Fprintln(b, "✓ No command injection vulnerabilities detected.")
		return
	}

	for _, f := range findings {
		if f.FuncName != "" {
			fmt.Fprintf(b, "   Potential command injection in '%s':\n", f.FuncName)
		}
		fmt.Fprintf(b, "   Address: %s\n", f.InstrAddr)
		fmt.Fprintf(b, "   Calls  : %s\n", f.Target)
		fmt.Fprintf(b, "   Detail : %s\n\n", f.Detail)
	}
}

func writeSummary(b *strings.Builder, r Report) {
	total := r.TotalIssues()
	fmt.Fprintf(b, "Total issues found: %d\n", total)
	fmt.Fprintf(b, "├─ Unsafe function calls: %d\n", len(r.UnsafeCallFindings))
	fmt.Fprintf(b, "├─ Heap overflows       : %d\n", len(r.HeapOverflowFindings))
	fmt.Fprintf(b, "└─ Command injections   : %d\n", len(r.CommandInjectionFindings))

	if total == 0 {
		fmt.Fprintln(b, "\nBinary appears to be free of common vulnerability patterns.")
		return
	}
	fmt.Fprintln(b, "\nReview flagged issues carefully - some may be false positives.")
	fmt.Fprintln(b, "   Focus on HIGH risk findings first.")
}

// dedupByTargetAndDetail groups findings by (target, detail), preserving
// the instruction-stream order of first occurrence, and collects each
// group's addresses.
func dedupByTargetAndDetail(findings []Finding) []findingGroup {
	index := make(map[string]int)
	var groups []findingGroup

	for _, f := range findings {
		key := f.Target + "\x00" + f.Detail
		if i, ok := index[key]; ok {
			groups[i].addrs = append(groups[i].addrs, f.InstrAddr)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, findingGroup{target: f.Target, detail: f.Detail, addrs: []string{f.InstrAddr}})
	}

	return groups
}
