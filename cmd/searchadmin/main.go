// Package main provides the entry point for the searchadmin CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"searchadmin/cmd/searchadmin/cmd"
)

func main() {
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
