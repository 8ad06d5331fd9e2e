package main

import "fleet-monitor/cmd"

func main() {
	cmd.Execute()
}
