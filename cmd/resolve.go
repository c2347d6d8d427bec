package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/harborline/resolve-cli/internal/model"
)

var (
	resolveName     string
	resolveNumber   string
	resolvePostcode string
	resolveSIC      []string
	resolveTruth    string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a single company to its official website",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		o, err := buildOrchestrator()
		if err != nil {
			return err
		}

		company := model.CompanyRecord{
			Name:               resolveName,
			RegistrationNumber: resolveNumber,
			Postcode:           resolvePostcode,
			SICCodes:           resolveSIC,
			GroundTruthURL:     resolveTruth,
		}

		result, err := o.Resolve(ctx, company)
		if err != nil {
			return eris.Wrap(err, "resolve company")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result), "encode result")
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveName, "name", "", "registered company name")
	resolveCmd.Flags().StringVar(&resolveNumber, "number", "", "company registration number")
	resolveCmd.Flags().StringVar(&resolvePostcode, "postcode", "", "registered office postcode")
	resolveCmd.Flags().StringSliceVar(&resolveSIC, "sic", nil, "SIC code descriptions")
	resolveCmd.Flags().StringVar(&resolveTruth, "truth", "", "known official URL, for scoring")
	_ = resolveCmd.MarkFlagRequired("name")
	_ = resolveCmd.MarkFlagRequired("number")

	rootCmd.AddCommand(resolveCmd)
}
