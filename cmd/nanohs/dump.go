package main

import (
	"github.com/alecthomas/repr"

	nanohs "github.com/mniip/nanohs"
)

// dumpAST renders a parsed module's top-level declarations with repr,
// matching the field-by-field pretty-printing style used elsewhere in the
// ecosystem for ad-hoc structural dumps (vippsas-sqlcode/sqltest's use of
// repr.String to render scanned row values for test output).
func dumpAST(node *nanohs.Node) string {
	return repr.String(node, repr.Indent("  "))
}
