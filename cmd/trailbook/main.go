package main

import "github.com/example/trailbook/cmd"

func main() {
	cmd.Execute()
}
