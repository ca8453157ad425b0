package main

import "github.com/iksnae/claude-session/cmd"

func main() {
	cmd.Execute()
}
