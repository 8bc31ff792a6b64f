package main

import "github.com/relvet/revet/internal/cli"

func main() {
	cli.Execute()
}
