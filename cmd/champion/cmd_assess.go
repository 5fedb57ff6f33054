package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-champion/internal/application"
)

func newAssessCommand(opts *rootOptions) *cobra.Command {
	var (
		calculationURI string
		guid           string
		resultSetPath  string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess a digital object and print the outcome as JSON",
		Long: `Assess a digital object with the algorithm at --calculation-uri.

With --guid every test of the algorithm is run against the object. With
--resultset an existing FTR result set (a file, or - for stdin) is scored
without running any test. The calculation URI may also be a local CSV
export.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if guid == "" && resultSetPath == "" {
				return errors.New("one of --guid or --resultset is required")
			}
			cfg, err := opts.config()
			if err != nil {
				return err
			}

			req := application.Request{CalculationURI: calculationURI, GUID: guid}
			if resultSetPath != "" {
				data, err := readInput(cmd.InOrStdin(), resultSetPath)
				if err != nil {
					return fmt.Errorf("reading result set: %w", err)
				}
				req.ResultSet = string(data)
			}

			orch, err := application.NewOrchestrator(cfg, application.NewDependencies(cfg, application.WiringOptions{
				Logger:     opts.logger(cmd.ErrOrStderr()),
				AllowFiles: true,
			}))
			if err != nil {
				return err
			}

			outcome, err := orch.Process(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), outcome)
		},
	}

	cmd.Flags().StringVar(&calculationURI, "calculation-uri", "", "Spreadsheet URI or local CSV export of the algorithm")
	cmd.Flags().StringVar(&guid, "guid", "", "GUID of the digital object to test")
	cmd.Flags().StringVar(&resultSetPath, "resultset", "", "JSON-LD result set to score instead of running tests (- for stdin)")
	_ = cmd.MarkFlagRequired("calculation-uri")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
