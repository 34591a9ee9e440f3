package main

import (
	"github.com/urfave/cli"
)

var COMMANDS = []cli.Command{
	{
		Name:  "run",
		Usage: "Bind and transmit, serving the control API until interrupted",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "config, c",
				Usage: "YAML configuration file (defaults and E012_* variables apply without one)",
			},
		},
		Action: runCommand,
	},

	{
		Name:  "identity",
		Usage: "Print the link identity derived from a serial number and fixed id",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "serial",
				Usage: "MCU serial number in hex",
			},
			cli.StringFlag{
				Name:  "fixed-id",
				Value: "0",
				Usage: "User fixed id (0 for none, 0x prefix for hex)",
			},
			cli.BoolFlag{
				Name:  "spread",
				Usage: "Derive four distinct hop channels",
			},
		},
		Action: identityCommand,
	},

	{
		Name:      "encode",
		Usage:     "Print the on-air frames for a payload",
		ArgsUsage: "<payload hex>",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "address",
				Value: "55429C8FC9",
				Usage: "Five byte link address in hex (default is the bind address)",
			},
			cli.BoolFlag{
				Name:  "no-crc",
				Usage: "Omit the checksum",
			},
			cli.UintFlag{
				Name:  "count, n",
				Value: 1,
				Usage: "Number of consecutive frames, showing the packet id sequence",
			},
		},
		Action: encodeCommand,
	},
}
