package main

import (
	"os"

	"github.com/odyssey-erp/storeledger/cmd/storeledger/cli"
)

func main() {
	os.Exit(cli.Execute())
}
