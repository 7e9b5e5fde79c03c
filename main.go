package main

import "github.com/khanhnv2901/vigilante/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
