package main

import (
	"fmt"
	"os"

	"github.com/rushteam/simrec/cmd/simrec/commands"
)

// 由构建脚本通过 -ldflags 注入
var version = "dev"

func main() {
	commands.SetVersion(version)
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
