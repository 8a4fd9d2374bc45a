package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/AlmiS/muontrap/muontrap/command"
)

func main() {
	app := command.NewApp()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
