// Command ogbanana serves the OG:BANANA API and drives it from the shell.
package main

import "github.com/2002Bishwajeet/ogbanana/internal/cli"

func main() {
	cli.Execute()
}
