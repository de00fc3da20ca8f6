package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <origin> <id>",
	Short: "Edit descriptive fields of a posting",
	Long: "Editable fields: title, institution, division, section, department, deadline, location " +
		"and any custom column. Editing the deadline keeps the first value as original_deadline.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sets, _ := cmd.Flags().GetStringArray("set")
		fields, err := parseAssignments(sets)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return fmt.Errorf("nothing to edit: pass --set field=value")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.Tracker.EditFields(ctx, keyArgs(args), fields)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", p.Key())
		return nil
	},
}

var notesCmd = &cobra.Command{
	Use:   "notes <origin> <id> <text>",
	Short: "Replace the notes of a posting",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.Tracker.SetNotes(ctx, keyArgs(args), args[2])
		if err != nil {
			return err
		}
		fmt.Printf("Saved notes for %s\n", p.Key())
		return nil
	},
}

var manualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Add a posting by hand",
	Long:  "Creates an interested posting with origin \"manual entry\". Unset title, institution and department default to placeholders.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sets, _ := cmd.Flags().GetStringArray("set")
		fields, err := parseAssignments(sets)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.Tracker.ManualEntry(ctx, fields)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s\n", p.Key())
		return nil
	},
}

func init() {
	editCmd.Flags().StringArray("set", nil, "field=value to set (repeatable)")
	manualCmd.Flags().StringArray("set", nil, "field=value to set (repeatable)")

	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(manualCmd)
}
