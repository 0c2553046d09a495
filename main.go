package main

import "soundwave/cmd"

func main() {
	cmd.Execute()
}
