package main

import "github.com/relloyd/empetl/cmd"

func main() {
	cmd.Execute()
}
