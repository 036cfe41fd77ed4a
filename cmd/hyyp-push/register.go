package main

import (
	"fmt"

	"github.com/hyyp-go/hyyp/gcm"
	"github.com/hyyp-go/hyyp/push"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

func registerCmd(g *global) *cobra.Command {
	var (
		senderID int64
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register push receiver and store credentials",
		Long: `Register performs device check-in, GCM registration and FCM subscription
for sender id, then stores credentials in data_dir.
Existing credentials are kept unless --force.

Prints FCM token to stdout, vendor API needs it to route notifications.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if senderID == 0 {
				senderID = g.config.SenderID
			}
			creds := g.store.Credentials()
			if creds != nil && !force {
				g.log.Infof("credentials exist android_id=%d, use --force to replace", creds.AndroidID)
			} else {
				var err error
				if creds, err = g.register(cmd, senderID); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), creds.FCMToken)
			return nil
		},
	}
	cmd.Flags().Int64Var(&senderID, "sender-id", 0, "FCM sender id, overrides config sender_id")
	cmd.Flags().BoolVar(&force, "force", false, "replace existing credentials")
	return cmd
}

func (g *global) register(cmd *cobra.Command, senderID int64) (*gcm.Credentials, error) {
	if senderID == 0 {
		return nil, errors.NotValidf("sender_id not set")
	}
	creds, err := push.Register(cmd.Context(), senderID, g.gcmClient())
	if err != nil {
		return nil, err
	}
	if err = g.store.SaveCredentials(creds); err != nil {
		return nil, err
	}
	g.log.Infof("registered android_id=%d app_id=%s", creds.AndroidID, creds.AppID)
	return creds, nil
}
