package main

import "github.com/iksnae/knowledge-store/cmd"

func main() {
	cmd.Execute()
}
