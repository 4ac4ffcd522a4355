package main

import "github.com/maxvaer/pathfuzz/cmd"

func main() {
	cmd.Execute()
}
