// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

// Command ordwallet is an ordinal aware bitcoin wallet.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/BoostyLabs/ordwallet/internal/config"
	"github.com/BoostyLabs/ordwallet/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}

		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := config.LoadEnv(".env"); err != nil {
		return err
	}

	cfg, rest, err := config.Parse(args)
	if err != nil {
		return err
	}

	a := &app{cfg: cfg, log: logger.New(os.Stderr, cfg.LogLevel, cfg.LogJSON)}

	parser := flags.NewNamedParser("ordwallet", flags.HelpFlag|flags.PassDoubleDash)
	parser.LongDescription = "Wallet options are set by global flags or ORDWALLET_* environment variables."
	if err = a.addCommands(parser); err != nil {
		return err
	}

	parser.CommandHandler = func(command flags.Commander, args []string) (err error) {
		if command == nil {
			return nil
		}

		if err = a.open(); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, a.Close())
		}()

		return command.Execute(args)
	}

	_, err = parser.ParseArgs(rest)

	return err
}
