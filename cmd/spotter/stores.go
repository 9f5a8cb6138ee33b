package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spotter/internal/config"
)

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List the built-in store presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, key := range config.StoreKeys() {
			s, err := config.Store(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-12s pages<=%-3d %s\n", s.Key, s.Retailer, s.PageLimit, s.FlyerURL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storesCmd)
}
