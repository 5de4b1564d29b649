package main

import "github.com/vibast-solutions/ms-go-eventrouter/cmd"

func main() {
	cmd.Execute()
}
