// Package ui renders the terminal output of the wsecho-probe CLI.
//
// Output is printed once per phase rather than redrawn: a Header describing
// the target, a Checklist with one line per check and a completion bar, and a
// Result box with the verdict. Colours and widths adapt to the terminal;
// when stdout is not a terminal the minimum width is used.
//
//	fmt.Println(ui.NewHeader("WebSocket Echo Probe", "wsecho-probe probe",
//	    ui.Param{Key: "Target", Value: url}))
//
//	checks := ui.NewChecklist("Connect", "Text echo", "Close handshake")
//	checks.Pass(0, "3ms")
//	fmt.Println(checks)
//
// Diagnostic logging stays silent unless WSECHO_LOG_LEVEL is set, so the
// curated output is not interleaved with log lines.
package ui
