package main

import "github.com/vietddude/digest/internal/cli"

func main() {
	cli.Execute()
}
