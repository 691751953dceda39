/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/lric3/recipes/config"
	"github.com/lric3/recipes/internal/db"
	"github.com/lric3/recipes/internal/seed"
	"github.com/lric3/recipes/internal/store"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample users and recipes",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			_ = conn.Close()
		}()

		users := store.NewUserRepository(conn)
		recipes := store.NewRecipeRepository(conn)
		if err := seed.Run(cmd.Context(), users, recipes); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
