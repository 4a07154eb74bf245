package main

import "seriald/cmd"

func main() {
	cmd.Execute()
}
