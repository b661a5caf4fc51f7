package main

import "github.com/kozaktomas/attendance-cam/cmd"

func main() {
	cmd.Execute()
}
