package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/xiaoquanidea/fast-clean-x/internal/cli"
)

func main() {
	// .env is optional
	_ = godotenv.Load()
	os.Exit(cli.Execute())
}
