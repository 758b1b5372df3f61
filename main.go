package main

import (
	"cafeteria-pass/cmd"

	_ "go.uber.org/automaxprocs"
)

func main() {
	cmd.Start()
}
