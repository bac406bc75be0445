// File: main.go
package main

import "github.com/xhsdash/xhs-cli/cmd"

func main() {
	cmd.Execute()
}
