package main

import (
	"github.com/pokecounter/pokecounter/cmd"
)

func main() {
	cmd.Execute()
}
