package main

import "rom-manager/cmd"

func main() {
	cmd.Execute()
}
