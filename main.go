package main

import (
	"github.com/outhook-io/outhook/cmd"
)

func main() {
	cmd.Execute()
}
