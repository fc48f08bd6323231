package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	gfsclient "github.com/relaysystems/gfscore/core/client"
	"github.com/relaysystems/gfscore/internal/config"
)

// newClient builds a client from the app's global flags and, when
// credentials are given, runs the authentication handshake before
// returning (spec.md §4.6, §8: "a client without -u/-p flags receives
// AuthFailed" when use_authentication is on).
func newClient(ctx *cli.Context) (*gfsclient.Client, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, err
	}

	c, err := gfsclient.New(cfg, log, ctx.String("cache"))
	if err != nil {
		return nil, err
	}

	username, password := ctx.String("u"), ctx.String("p")
	if cfg.UseAuthentication || username != "" {
		if err := c.Authenticate(username, password); err != nil {
			return nil, err
		}
	}

	return c, nil
}

var uploadCmd = &cli.Command{
	Name:  "upload",
	Usage: "upload a local file under a dfs path",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "file", Required: true, Usage: "local file to upload"},
		&cli.StringFlag{Name: "name", Required: true, Usage: "name to store the file under"},
	},
	Action: func(ctx *cli.Context) error {
		c, err := newClient(ctx)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(ctx.String("file"))
		if err != nil {
			return err
		}

		if err := c.Upload(ctx.String("name"), data); err != nil {
			return err
		}

		fmt.Printf("uploaded %s (%d bytes)\n", ctx.String("name"), len(data))
		return nil
	},
}

var readCmd = &cli.Command{
	Name:  "read",
	Usage: "read a stored file to stdout",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Required: true, Usage: "name of the file to read"},
	},
	Action: func(ctx *cli.Context) error {
		c, err := newClient(ctx)
		if err != nil {
			return err
		}

		data, err := c.Read(ctx.String("name"))
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(data)
		return err
	},
}

var appendCmd = &cli.Command{
	Name:  "append",
	Usage: "append local file bytes to a stored file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "file", Required: true, Usage: "local file whose bytes to append"},
		&cli.StringFlag{Name: "name", Required: true, Usage: "name of the file to append to"},
	},
	Action: func(ctx *cli.Context) error {
		c, err := newClient(ctx)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(ctx.String("file"))
		if err != nil {
			return err
		}

		if err := c.Append(ctx.String("name"), data); err != nil {
			return err
		}

		fmt.Printf("appended %d bytes to %s\n", len(data), ctx.String("name"))
		return nil
	},
}

var deleteCmd = &cli.Command{
	Name:  "delete",
	Usage: "delete a stored file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Required: true, Usage: "name of the file to delete"},
	},
	Action: func(ctx *cli.Context) error {
		c, err := newClient(ctx)
		if err != nil {
			return err
		}

		if err := c.Delete(ctx.String("name")); err != nil {
			return err
		}

		fmt.Printf("deleted %s\n", ctx.String("name"))
		return nil
	},
}
