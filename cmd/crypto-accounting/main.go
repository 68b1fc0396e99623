// Package main is the entry point for the crypto-accounting CLI.
package main

import (
	"os"

	"github.com/Myoxsis/Crypto-Accounting-v2/cmd/crypto-accounting/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
