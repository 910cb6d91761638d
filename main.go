package main

import "github.com/grocerly/authserver/cmd"

func main() {
	cmd.Execute()
}
