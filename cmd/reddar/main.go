package main

import (
	"reddar/cmd/handlers"
	"reddar/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
