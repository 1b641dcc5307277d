package main

import "github.com/javanhut/treestream/cli"

func main() {
	cli.Execute()
}
