package main

import (
	"github.com/muxrpc/muxrpc/cmd"
)

func main() {
	cmd.Execute()
}
