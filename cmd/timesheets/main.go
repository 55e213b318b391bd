// Command timesheets builds the per-person yearly timesheets of a project
// from the declared time and exports them as PDF.
package main

import (
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
