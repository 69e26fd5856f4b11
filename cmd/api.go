package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pathwise/internal/services"
	"github.com/desertthunder/pathwise/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a GET request through the authenticated pipeline and prints the body.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)
	resp, err := client.Get(ctx, path)
	if err != nil {
		return err
	}
	return r.writeResponse(resp, !cmd.Bool("compact"))
}

// APIPost makes a POST request with a JSON body through the authenticated pipeline.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}
	if err := shared.ValidateJSON([]byte(data)); err != nil {
		return err
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)
	resp, err := client.Post(ctx, path, []byte(data))
	if err != nil {
		return err
	}
	return r.writeResponse(resp, !cmd.Bool("compact"))
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	if err := r.writeBytes(resp.Body); err != nil {
		return err
	}
	return r.writePlain("\n")
}
