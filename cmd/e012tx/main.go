package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var log = logrus.WithField("component", "main")

func main() {
	app := cli.NewApp()
	app.Name = "e012tx"
	app.Usage = "E012 quadcopter transmitter over an nRF24L01"
	app.Commands = COMMANDS

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
