// Command atmsim runs the simulate/observe pipeline from the command
// line.
package main

import "github.com/ctessum-atm/atmsim/cliutil"

func main() {
	cliutil.Execute()
}
