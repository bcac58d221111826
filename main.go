package main

import "ragloader/cmd"

func main() {
	cmd.Execute()
}
