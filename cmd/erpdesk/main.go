package main

import "github.com/jmcleod/erpdesk/cmd/erpdesk/cmd"

func main() {
	cmd.Execute()
}
