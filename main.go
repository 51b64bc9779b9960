package main

import "github.com/navgurukul/leave-management/cmd"

func main() {
	cmd.Execute()
}
