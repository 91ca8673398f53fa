package main

import "pgslice/cmd"

func main() {
	cmd.Execute()
}
