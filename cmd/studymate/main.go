// Command studymate indexes study material and answers questions with the
// most relevant passages.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/abhinay-x/studymate-sub000/internal/adapters/driving/cli"
)

func main() {
	// A missing .env file is not an error; API keys may come from the shell.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
