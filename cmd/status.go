package cmd

import (
	"fmt"

	statusadapter "github.com/bnema/leasehold/internal/adapters/render/status"
	"github.com/bnema/leasehold/internal/application"
	"github.com/bnema/leasehold/internal/domain"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var kindFlag string
	var asJSON bool
	var showContact bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the restored session of every account kind",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.start(cmd.Context())

			statuses, err := loadStatuses(app.service, kindFlag)
			if err != nil {
				return err
			}
			return writeStatusesOutput(cmd, app, statuses, asJSON, showContact)
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Account kind (default: all kinds)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&showContact, "contact", false, "Include email and phone number")

	return cmd
}

func writeStatusesOutput(cmd *cobra.Command, app *app, statuses []application.Status, asJSON, showContact bool) error {
	if asJSON {
		return writeJSON(cmd, statuses)
	}

	rendered, err := app.statusRenderer(statuses, statusadapter.RenderOptions{
		Now:         app.now(),
		ShowContact: showContact,
	})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func loadStatuses(svc *application.Service, rawKind string) ([]application.Status, error) {
	if rawKind == "" {
		return svc.GetStatusAll(), nil
	}

	kind, err := domain.ParseAccountKind(rawKind)
	if err != nil {
		return nil, err
	}
	status, err := svc.GetStatus(kind)
	if err != nil {
		return nil, err
	}

	return []application.Status{status}, nil
}
