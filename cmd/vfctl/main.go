package main

import "github.com/vectorflow/vectorflow/cmd/vfctl/cmd"

func main() {
	cmd.Execute()
}
