package main

import "github.com/fachebot/session-brief/cmd"

func main() {
	cmd.Execute()
}
