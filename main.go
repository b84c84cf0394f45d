package main

import (
	"os"

	"github.com/ajo-platform/ajo-admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
