package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/2beens/dailymetrics/pkg"
)

var hashCost int

var hashSecretCmd = &cobra.Command{
	Use:         "hash-secret <secret>",
	Short:       "Print the bcrypt hash to put in OPERATOR_SECRET_HASH",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoStores: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := pkg.HashPassword(args[0], hashCost)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	hashSecretCmd.Flags().IntVar(&hashCost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	rootCmd.AddCommand(hashSecretCmd)
}
