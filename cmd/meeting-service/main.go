// Package main — точка входа meeting-service (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/psds-microservice/meeting-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
