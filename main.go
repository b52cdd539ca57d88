package main

import "storm-radar/internal/cli"

func main() {
	cli.Execute()
}
