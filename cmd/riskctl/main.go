package main

import (
	"github.com/oralsmart/riskctl/pkg/cli"
)

func main() {
	cli.Execute()
}
