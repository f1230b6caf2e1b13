package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-pulse/internal/config"
	"github.com/rxtech-lab/argo-pulse/internal/version"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the config file",
		Action: func(_ context.Context, cmd *cli.Command) error {
			schema, err := config.Schema()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(stdout(cmd), schema)

			return err
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the binary version",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(stdout(cmd), version.GetVersion())

			return err
		},
	}
}
