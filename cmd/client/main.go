package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/relaysystems/gfscore/internal/gfslog"
)

var log *gfslog.Logger

func main() {
	var err error
	log, err = gfslog.NewDevelopment("client")
	if err != nil {
		panic(err)
	}

	app := &cli.App{
		Name:  "gfsclient",
		Usage: "upload, read, append, and delete files against a gfscore cluster",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to TOML config file"},
			&cli.StringFlag{Name: "cache", Value: "./client-cache", Usage: "path to the local chunk-map cache"},
			&cli.StringFlag{Name: "u", Usage: "username, when use_authentication is enabled"},
			&cli.StringFlag{Name: "p", Usage: "password, when use_authentication is enabled"},
		},
		Commands: []*cli.Command{uploadCmd, readCmd, appendCmd, deleteCmd},
	}

	if err := app.Run(os.Args); err != nil {
		log.Errorw("command failed", "err", err)
		os.Exit(1)
	}
}
