package main

import (
	"fmt"
	"time"

	espacemembre "github.com/goliatone/go-auth-espace-membre"
	"github.com/goliatone/go-auth-espace-membre/client"
	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
)

func (a *app) printJSON(v any) {
	fmt.Fprintln(a.out, print.MaybePrettyJSON(v))
}

func newMemberCmd(a *app) *cobra.Command {
	var deliveryOnly bool
	cmd := &cobra.Command{
		Use:   "member <username>",
		Short: "Show a member and the address sign-in links are sent to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			member, err := a.wrappers.Lookup.GetByUsername(cmd.Context(), args[0])
			if err != nil {
				if client.IsMemberNotFound(err) {
					return fmt.Errorf("member %q not found", args[0])
				}
				return err
			}
			if deliveryOnly {
				fmt.Fprintln(a.out, member.DeliveryEmail())
				return nil
			}
			a.printJSON(member)
			fmt.Fprintf(a.out, "delivery email: %s\n", member.DeliveryEmail())
			return nil
		},
	}
	cmd.Flags().BoolVar(&deliveryOnly, "delivery-email", false, "print only the delivery email")
	return cmd
}

func newStartupsCmd(a *app) *cobra.Command {
	var opts client.StartupListOptions
	cmd := &cobra.Command{
		Use:   "startups",
		Short: "List startups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			startups, err := a.wrappers.Client.Startup().GetAll(cmd.Context(), opts)
			if err != nil {
				return err
			}
			a.printJSON(startups)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.WithIncubator, "with-incubator", false, "include each startup's incubator")
	return cmd
}

func newStartupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "startup <ghid>",
		Short: "Show a startup by its ghid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startup, err := a.wrappers.Client.Startup().GetByGhid(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printJSON(startup)
			return nil
		},
	}
}

func newIncubatorsCmd(a *app) *cobra.Command {
	var opts client.IncubatorListOptions
	cmd := &cobra.Command{
		Use:   "incubators",
		Short: "List incubators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			incubators, err := a.wrappers.Client.Incubator().GetAll(cmd.Context(), opts)
			if err != nil {
				return err
			}
			a.printJSON(incubators)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.WithStartups, "with-startups", false, "include startups")
	cmd.Flags().BoolVar(&opts.WithMembers, "with-members", false, "include members")
	return cmd
}

func newSendLinkCmd(a *app) *cobra.Command {
	var link string
	cmd := &cobra.Command{
		Use:   "send-link <username>",
		Short: "Mail a sign-in link to a member's delivery address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := a.cfg.NewMailer(a.logger)
			if err != nil {
				return err
			}
			provider, err := a.wrappers.Provider.Wrap(base)
			if err != nil {
				return err
			}
			username, err := provider.NormalizeIdentifier(args[0])
			if err != nil {
				return err
			}
			return provider.SendVerificationRequest(cmd.Context(), espacemembre.VerificationRequestParams{
				Identifier: username,
				URL:        link,
				Expires:    time.Now().Add(base.MaxAge()),
				Provider:   provider,
			})
		},
	}
	cmd.Flags().StringVar(&link, "url", "", "sign-in URL to send")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newSyncUserCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-user <username>",
		Short: "Create the local user record for a member if missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, db, err := a.cfg.OpenRepository(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			adapter, err := a.wrappers.Adapter.Wrap(store)
			if err != nil {
				return err
			}
			user, err := adapter.GetUserByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			if user == nil {
				if user, err = adapter.CreateUser(ctx, espacemembre.AdapterUser{Email: args[0]}); err != nil {
					return err
				}
				a.logger.Info("user created", "id", user.ID)
			}
			a.printJSON(user)
			return nil
		},
	}
}

func newPurgeTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-tokens",
		Short: "Delete expired verification tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, db, err := a.cfg.OpenRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			removed, err := store.DeleteExpiredTokens(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "removed %d expired tokens\n", removed)
			return nil
		},
	}
}
