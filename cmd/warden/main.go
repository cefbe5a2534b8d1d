package main

import (
	"github.com/Paintersrp/warden/internal/cli"
)

func main() {
	cli.Execute()
}
