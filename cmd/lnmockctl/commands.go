package main

import (
	"github.com/spf13/cobra"
)

var (
	invoiceExpiry   string
	invoicePreimage string
	listLabel       string
	listStatus      string
)

func init() {
	invoiceCmd.Flags().StringVarP(&invoiceExpiry, "expiry", "e", "", "seconds or duration until the invoice expires")
	invoiceCmd.Flags().StringVarP(&invoicePreimage, "preimage", "", "", "hex encoded 32 byte preimage")

	listInvoicesCmd.Flags().StringVarP(&listLabel, "label", "l", "", "label or payment hash of the invoice")
	listInvoicesCmd.Flags().StringVarP(&listStatus, "status", "", "", "unpaid, paid or expired")

	rootCmd.AddCommand(invoiceCmd)
	rootCmd.AddCommand(listInvoicesCmd)
	rootCmd.AddCommand(markPaidCmd)
	rootCmd.AddCommand(advanceTimeCmd)
	rootCmd.AddCommand(decodePayCmd)
	rootCmd.AddCommand(getInfoCmd)
}

var invoiceCmd = &cobra.Command{
	Use:   "invoice <amount> <label> <description>",
	Short: "create an invoice. amount is msat, or 10sat, or any",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := invoiceParams(args, invoiceExpiry, invoicePreimage)
		return newClient(cmd.OutOrStdout()).run(cmd.Context(), "invoice", params)
	},
}

var listInvoicesCmd = &cobra.Command{
	Use:   "listinvoices",
	Short: "list invoices with their current status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := optionalParams(map[string]string{
			"label":  listLabel,
			"status": listStatus,
		})
		return newClient(cmd.OutOrStdout()).run(cmd.Context(), "listinvoices", params)
	},
}

var markPaidCmd = &cobra.Command{
	Use:   "markpaid <label>",
	Short: "mark an invoice as paid by label or payment hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{"label": args[0]}
		return newClient(cmd.OutOrStdout()).run(cmd.Context(), "markpaid", params)
	},
}

var advanceTimeCmd = &cobra.Command{
	Use:   "advancetime <seconds>",
	Short: "move the daemon clock forward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{"seconds": args[0]}
		return newClient(cmd.OutOrStdout()).run(cmd.Context(), "advancetime", params)
	},
}

var decodePayCmd = &cobra.Command{
	Use:   "decodepay <bolt11>",
	Short: "decode a payment request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{"bolt11": args[0]}
		return newClient(cmd.OutOrStdout()).run(cmd.Context(), "decodepay", params)
	},
}

var getInfoCmd = &cobra.Command{
	Use:   "getinfo",
	Short: "show node id, network and current time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd.OutOrStdout()).run(cmd.Context(), "getinfo", nil)
	},
}

func invoiceParams(args []string, expiry, preimage string) map[string]any {
	params := optionalParams(map[string]string{
		"expiry":   expiry,
		"preimage": preimage,
	})
	params["amount_msat"] = args[0]
	params["label"] = args[1]
	params["description"] = args[2]
	return params
}

// optionalParams drops empty values so the daemon applies its defaults.
func optionalParams(values map[string]string) map[string]any {
	params := make(map[string]any, len(values))
	for k, v := range values {
		if v != "" {
			params[k] = v
		}
	}
	return params
}
