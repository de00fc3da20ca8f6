package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold <name>",
	Short: "Create an application folder from the scaffolding template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *appEnv) error {
			dest, err := env.Tracker.Scaffold(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created %s\n", dest)
			return nil
		})
	},
}

var scaffoldConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Set the scaffolding template and output directories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd, func(env *appEnv) error {
			if base, _ := cmd.Flags().GetString("base"); base != "" {
				env.Personal.ScaffoldingBaseDir = base
			}
			if out, _ := cmd.Flags().GetString("output"); out != "" {
				env.Personal.ScaffoldingOutputDir = out
			}
			if err := env.Personal.Save(); err != nil {
				return err
			}
			fmt.Printf("base: %s\noutput: %s\n", env.Personal.ScaffoldingBaseDir, env.Personal.ScaffoldingOutputDir)
			return nil
		})
	},
}

func init() {
	scaffoldConfigCmd.Flags().String("base", "", "template directory to copy")
	scaffoldConfigCmd.Flags().String("output", "", "directory new projects are created in")

	scaffoldCmd.AddCommand(scaffoldConfigCmd)
	rootCmd.AddCommand(scaffoldCmd)
}
