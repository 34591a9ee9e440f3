package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/ystepanoff/e012tx/config"
	proto "github.com/ystepanoff/e012tx/protocol"
)

func encodeCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one payload argument, got %d", ctx.NArg())
	}
	payload, err := config.ParseSerial(ctx.Args().First())
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	raw, err := config.ParseSerial(ctx.String("address"))
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	if len(raw) != proto.AddressLength {
		return proto.ErrInvalidAddress
	}
	var addr [proto.AddressLength]byte
	copy(addr[:], raw)

	codec := proto.NewCodec(addr)
	codec.EnableCRC(!ctx.Bool("no-crc"))
	for i := uint(0); i < ctx.Uint("count"); i++ {
		frame, err := codec.Encode(payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "% X\n", frame)
	}
	return nil
}
