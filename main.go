package main

import "github.com/brodo/wasmpack-pages/cmd"

func main() {
	cmd.Execute()
}
