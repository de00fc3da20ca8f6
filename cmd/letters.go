package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var lettersCmd = &cobra.Command{
	Use:   "letters",
	Short: "Manage letter writers and received letters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		writers := env.Personal.LetterWriters
		if len(writers) == 0 {
			fmt.Println("No letter writers configured. Add one with `jmtracker letters add <name>`.")
			return nil
		}
		for _, w := range writers {
			fmt.Println(w)
		}
		return nil
	},
}

var lettersAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a letter writer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *appEnv) error {
			return env.Tracker.AddWriter(args[0])
		})
	},
}

var lettersRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a letter writer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *appEnv) error {
			return env.Tracker.RenameWriter(args[0], args[1])
		})
	},
}

var lettersRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a letter writer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *appEnv) error {
			return env.Tracker.RemoveWriter(args[0])
		})
	},
}

var lettersSetCmd = &cobra.Command{
	Use:   "set <origin> <id> [writer...]",
	Short: "Record which writers have sent letters for an application",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(env *appEnv) error {
			p, err := env.Tracker.SetLetters(cmd.Context(), keyArgs(args), args[2:])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s letters (%s)\n", p.Key(), p.LettersStatus, strings.ReplaceAll(p.LettersReceived, ",", ", "))
			return nil
		})
	},
}

// withEnv runs fn with an initialized environment and closes it afterwards.
func withEnv(cmd *cobra.Command, fn func(*appEnv) error) error {
	env, err := initEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}

func init() {
	lettersCmd.AddCommand(lettersAddCmd)
	lettersCmd.AddCommand(lettersRenameCmd)
	lettersCmd.AddCommand(lettersRemoveCmd)
	lettersCmd.AddCommand(lettersSetCmd)
	rootCmd.AddCommand(lettersCmd)
}
