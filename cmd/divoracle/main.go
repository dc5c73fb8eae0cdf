package main

import (
	"fmt"
	"os"

	"github.com/danmuck/oraclebs/internal/logging"
)

func main() {
	logging.ConfigureRuntime()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "divoracle: %v\n", err)
		os.Exit(1)
	}
}
