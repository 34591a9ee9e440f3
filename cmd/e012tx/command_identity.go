package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli"

	"github.com/ystepanoff/e012tx/config"
	proto "github.com/ystepanoff/e012tx/protocol"
)

func identityCommand(ctx *cli.Context) error {
	serial, err := config.ParseSerial(ctx.String("serial"))
	if err != nil {
		return err
	}
	fixedID, err := strconv.ParseUint(ctx.String("fixed-id"), 0, 32)
	if err != nil {
		return fmt.Errorf("invalid fixed id: %w", err)
	}
	policy := proto.HopSingle
	if ctx.Bool("spread") {
		policy = proto.HopSpread
	}

	id := proto.DeriveIdentity(serial, uint32(fixedID), policy)
	fmt.Fprintf(ctx.App.Writer, "address:  % X\n", id.Address[:])
	fmt.Fprintf(ctx.App.Writer, "channels: % X\n", id.Channels[:])
	fmt.Fprintf(ctx.App.Writer, "crc seed: %04X\n", proto.AddressSeed(id.Address[:]))
	return nil
}
