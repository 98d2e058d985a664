package main

import "github.com/will-rowe/countergather/cmd"

func main() {
	cmd.Execute()
}
