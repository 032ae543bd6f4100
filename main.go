package main

import (
	"log"

	"bingo-service/config"

	"github.com/spf13/cobra"
)

const releaseVersion = "1.0.0"

// @title Bingo Service API
// @version 1.0
// @description Football bingo games and live quiz rooms
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: Failed to load .env file: %v", err)
	}
	cobra.CheckErr(newRootCmd().Execute())
}
