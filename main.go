package main

import "github.com/itsmostafa/evalctl/cmd"

func main() {
	cmd.Execute()
}
