package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/chatcore/sessiongate/cmd/sessiongate/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Config  kong.ConfigFlag     `help:"YAML configuration file."`
		Debug   bool                `help:"Enable debug mode." env:"SESSIONGATE_DEBUG"`
		Version kong.VersionFlag    `help:"Print version and exit."`
		Serve   commands.ServeCmd   `cmd:"" help:"Serve the protected HTTP API."`
		Session commands.SessionCmd `cmd:"" help:"Inspect or revoke stored sessions."`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("sessiongate"),
		kong.Description("Session validation and authorization gateway."),
		kong.Vars{
			"version": version,
		},
		kong.Configuration(commands.YAMLLoader, "/etc/sessiongate/config.yaml", "~/.config/sessiongate/config.yaml"),
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
