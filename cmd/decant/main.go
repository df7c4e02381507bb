package main

import (
	"os"

	"horse.fit/decant/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
