package main

import (
	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/localca/cmd/localca/internal/commands"
	"github.com/wolfeidau/localca/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Init      commands.InitCmd      `cmd:"" help:"Create the root certificate authority"`
		Issue     commands.IssueCmd     `cmd:"" help:"Issue a certificate for one or more hosts"`
		List      commands.ListCmd      `cmd:"" help:"List issued certificates"`
		Delete    commands.DeleteCmd    `cmd:"" help:"Delete the certificate for a host"`
		DeleteAll commands.DeleteAllCmd `cmd:"" name:"delete-all" help:"Delete every certificate including the authority"`
		Dir       commands.DirCmd       `cmd:"" help:"Print the certificate directory"`
		PurgeKeys commands.PurgeKeysCmd `cmd:"" name:"purge-keys" help:"Delete stored private keys matching a pattern"`
		Config    string                `help:"Path to config file" type:"path"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		})
	log.Logger = logger.Setup(cli.Debug)
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, Config: cli.Config})
	cmd.FatalIfErrorf(err)
}
