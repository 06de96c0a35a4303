package main

import "github.com/NeetCrusader/rich-presence/cmd"

func main() {
	cmd.Execute()
}
