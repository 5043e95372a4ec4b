// Command fundledger keeps a multi-fund household ledger: accounts, monthly
// accounting periods and the balance events between them. Every change is
// validated against the balances it would affect and appended to a WAL.
//
// Usage:
//
//	fundledger init -o config.yaml
//	fundledger -config config.yaml period -month 2025-01
//	fundledger -config config.yaml balance -account Checking -date 2025-01-31
//	fundledger -config config.yaml serve
//
// FUNDLEDGER_WAL_DIR overrides the WAL directory from the config file.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/vadiminshakov/fundledger/config"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	s := &session{flags: config.RegisterFlags(flag.CommandLine), out: os.Stdout}

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&initCmd{}, "")
	for _, c := range s.commands() {
		commander.Register(c.cmd, c.group)
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
