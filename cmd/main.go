package main

import "github.com/emiliopalmerini/abkit/internal/cli"

func main() {
	cli.Execute()
}
