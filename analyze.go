package vulnscan

import "github.com/sirupsen/logrus"

// Analyze runs the full pipeline against the binary at path: disassemble,
// fan out to the three detectors, and build a Report. It never returns
// an error — a missing or unreadable binary, or a disassembler spawn
// failure, surfaces as an empty function list and therefore an empty
// report.
func Analyze(path string) Report {
	dis := Disassembler{}
	funcs := dis.Parse(path)
	logrus.WithField("functions", len(funcs)).Debug("vulnscan: disassembly complete")

	dem := Demangler{}
	unsafe := UnsafeCallDetector{Demangler: dem}.Detect(funcs)
	heap := HeapOverflowDetector{Demangler: dem}.Detect(funcs)
	cmd := CommandInjectionDetector{Demangler: dem}.Detect(funcs)

	logrus.WithFields(logrus.Fields{
		"unsafe_calls":       len(unsafe),
		"heap_overflows":     len(heap),
		"command_injections": len(cmd),
	}).Debug("vulnscan: detectors complete")

	return BuildReport(unsafe, heap, cmd)
}
