package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/apiclient"
	"github.com/jonwraymond/apiclient/gateway"
)

// errOffline makes probe exit non-zero.
var errOffline = errors.New("backend offline")

func newProbeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Run one connection check and report the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := flags.newClient(ctx, cmd.ErrOrStderr(), apiclient.WithoutAutoStart())
			if err != nil {
				return err
			}
			defer func() { _ = client.Dispose(context.WithoutCancel(ctx)) }()

			err = client.CheckConnection().Wait(ctx)
			out := cmd.OutOrStdout()
			if err == nil {
				fmt.Fprintf(out, "online %s\n", client.BaseURL())
				return nil
			}

			var gerr *gateway.Error
			if errors.As(err, &gerr) {
				fmt.Fprintf(out, "offline %s: %s\n", client.BaseURL(), gerr.Message())
				return errOffline
			}
			return err
		},
	}
}
