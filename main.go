package main

import "github.com/clarityhq/clarity/cmd"

func main() {
	cmd.Execute()
}
