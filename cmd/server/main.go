package main

import (
	"github.com/pathfinder-ai/career-backend/internal/bootstrap"
)

func main() {
	bootstrap.Run()
}
