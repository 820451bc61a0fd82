package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/leasehold/internal/application"
	"github.com/bnema/leasehold/internal/domain"
	"github.com/spf13/cobra"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and change the session of one account kind",
	}

	cmd.AddCommand(
		newSessionShowCmd(app),
		newSessionLoginCmd(app),
		newSessionLogoutCmd(app),
		newSessionUpdateCmd(app),
		newSessionTokenCmd(app),
	)

	return cmd
}

func newSessionShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <kind>",
		Short: "Print the restored snapshot of a kind as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseAccountKind(args[0])
			if err != nil {
				return err
			}

			app.start(cmd.Context())
			status, err := app.service.GetStatus(kind)
			if err != nil {
				return err
			}
			return writeJSON(cmd, status.Snapshot)
		},
	}
}

func newSessionLoginCmd(app *app) *cobra.Command {
	var accountID int64
	var token string
	var fields domain.Fields

	cmd := &cobra.Command{
		Use:   "login <kind>",
		Short: "Log a kind in and persist its snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseAccountKind(args[0])
			if err != nil {
				return err
			}

			fields.AccountID = domain.NewAccountID(accountID)
			app.start(cmd.Context())
			snapshot, err := app.service.Login(cmd.Context(), application.LoginCommand{Kind: kind, Fields: fields, Token: token})
			if err != nil {
				return err
			}
			return writeJSON(cmd, snapshot)
		},
	}

	cmd.Flags().Int64Var(&accountID, "account-id", 0, "Account ID")
	cmd.Flags().StringVar(&fields.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&fields.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&fields.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&fields.PhoneNumber, "phone", "", "Phone number")
	cmd.Flags().BoolVar(&fields.IsSubscribed, "subscribed", false, "Mark the account as subscribed")
	cmd.Flags().StringVar(&fields.TokenRef, "token-ref", "", "Reference to the kind's authorization token")
	cmd.Flags().StringVar(&token, "token", "", "Authorization token to keep in the token vault (overrides --token-ref)")
	_ = cmd.MarkFlagRequired("account-id")

	return cmd
}

func newSessionLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout <kind>",
		Short: "Log a kind out and delete its persisted snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseAccountKind(args[0])
			if err != nil {
				return err
			}

			app.start(cmd.Context())
			if err := app.service.Logout(cmd.Context(), application.LogoutCommand{Kind: kind}); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s logged out\n", kind)
			return err
		},
	}
}

// Updates only change the in-memory session, so the result is printed but
// not persisted for the next invocation.
func newSessionUpdateCmd(app *app) *cobra.Command {
	var firstName, lastName, email, phone string
	var subscribed bool

	cmd := &cobra.Command{
		Use:   "update <kind>",
		Short: "Merge profile fields into a logged-in session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseAccountKind(args[0])
			if err != nil {
				return err
			}

			var patch domain.Patch
			flags := cmd.Flags()
			if flags.Changed("first-name") {
				patch.FirstName = &firstName
			}
			if flags.Changed("last-name") {
				patch.LastName = &lastName
			}
			if flags.Changed("email") {
				patch.Email = &email
			}
			if flags.Changed("phone") {
				patch.PhoneNumber = &phone
			}
			if flags.Changed("subscribed") {
				patch.IsSubscribed = &subscribed
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to update: set at least one field flag")
			}

			app.start(cmd.Context())
			snapshot, err := app.service.Update(cmd.Context(), application.UpdateCommand{Kind: kind, Patch: patch})
			if err != nil {
				return err
			}
			return writeJSON(cmd, snapshot)
		},
	}

	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().BoolVar(&subscribed, "subscribed", false, "Subscription flag")

	return cmd
}

func newSessionTokenCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token <kind>",
		Short: "Print the vaulted authorization token of a logged-in kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseAccountKind(args[0])
			if err != nil {
				return err
			}

			app.start(cmd.Context())
			token, err := app.service.Token(cmd.Context(), kind)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
