package main

import (
	"github.com/davestewart/bskyinfo/cmd"
)

func main() {
	cmd.Execute()
}
