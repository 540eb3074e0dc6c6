package main

import "github.com/theirongolddev/huntlog/cmd"

func main() {
	cmd.Execute()
}
