// Command tabreport pulls view data from a Tableau site, transforms it
// into grouped, subtotaled sheets, writes a styled .xlsx workbook, and
// mails it to the configured distribution list.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
