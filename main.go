package main

import "github.com/theirongolddev/worktime/cmd"

func main() {
	cmd.Execute()
}
