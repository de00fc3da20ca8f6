package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Manage custom posting columns",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd, func(env *appEnv) error {
			if len(env.Personal.CustomColumns) == 0 {
				fmt.Println("No custom columns.")
				return nil
			}
			for _, c := range env.Personal.CustomColumns {
				fmt.Println(c)
			}
			return nil
		})
	},
}

var columnsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a custom column to every posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *appEnv) error {
			return env.Tracker.AddCustomColumn(cmd.Context(), args[0])
		})
	},
}

var columnsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a custom column and its values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *appEnv) error {
			return env.Tracker.RemoveCustomColumn(cmd.Context(), args[0])
		})
	},
}

func init() {
	columnsCmd.AddCommand(columnsAddCmd)
	columnsCmd.AddCommand(columnsRemoveCmd)
	rootCmd.AddCommand(columnsCmd)
}
