// Command ulinkctl is a small operator tool for probing and exercising an
// OpenULINK adapter from the command line.
package main

import "github.com/openulink/goulink/cmd/ulinkctl/cmd"

func main() {
	cmd.Execute()
}
