package main

import (
	"github.com/joho/godotenv"

	"github.com/frahmantamala/report-management/cmd"
	"github.com/frahmantamala/report-management/pkg/logger"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	logger.Init("development")
	cmd.Execute()
}
