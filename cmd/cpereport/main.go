package main

import (
	"os"

	"github.com/solatis/cpereport/cmd/cpereport/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
