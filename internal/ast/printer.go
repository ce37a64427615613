package ast

import "strings"

// Print renders a module back to a compact textual form. It is not meant to
// round-trip exactly; it exists for debug dumps and test fixtures.
func Print(m *Module) string {
	var b strings.Builder
	b.WriteString("module ")
	b.WriteString(m.Name.Value)
	b.WriteString(" {\n")
	for _, item := range m.Items {
		b.WriteString("  ")
		b.WriteString(item.String())
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}
