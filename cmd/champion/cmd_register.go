package main

import (
	"github.com/spf13/cobra"

	"github.com/ahrav/go-champion/internal/application"
)

func newRegisterCommand(opts *rootOptions) *cobra.Command {
	var calculationURI string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Publish an algorithm's description to the FDP Index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			orch, err := application.NewOrchestrator(cfg, application.NewDependencies(cfg, application.WiringOptions{
				Logger: opts.logger(cmd.ErrOrStderr()),
			}))
			if err != nil {
				return err
			}

			def, err := orch.Register(cmd.Context(), calculationURI)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{"id": def.AlgorithmID, "guid": def.GUID()})
		},
	}

	cmd.Flags().StringVar(&calculationURI, "calculation-uri", "", "Spreadsheet URI of the algorithm")
	_ = cmd.MarkFlagRequired("calculation-uri")
	return cmd
}
