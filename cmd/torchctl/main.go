package main

import (
	"os"

	"torchserved/internal/ctl"
)

func main() { os.Exit(ctl.MainWithArgs(os.Args[1:])) }
