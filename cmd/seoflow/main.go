package main

import "seoflow/internal/cli"

func main() {
	cli.Execute()
}
