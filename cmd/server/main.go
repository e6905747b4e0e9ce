package main

import (
	"github.com/formulary/backend/internal/delivery/cli"
)

func main() {
	cli.Execute()
}
