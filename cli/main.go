package main

import (
	"github.com/devboardui/devboard/cli/cmd"
)

func main() {
	cmd.Execute()
}
