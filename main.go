// @title IHK Prüfungsvorbereitung API
// @version 1.0
// @description Content- und Fortschritts-Engine für die IHK-Abschlussprüfung Fachinformatiker (AP2).

// @host localhost:8080
// @BasePath /api

package main

import (
	"os"

	"ihk_prep_backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
