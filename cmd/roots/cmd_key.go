package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/community-roots/internal/credential"
)

// keyCmd manages the stored Gemini API key.
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the Gemini API key in the system keyring",
	Long: `Store or remove the Gemini API key used by Rooty.

The GEMINI_API_KEY (or API_KEY) environment variable always takes
precedence over the stored key.`,
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store the API key (prompts when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKeySet,
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE:  runKeyDelete,
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether an API key is available",
	Args:  cobra.NoArgs,
	RunE:  runKeyStatus,
}

func init() {
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyDeleteCmd)
	keyCmd.AddCommand(keyStatusCmd)
}

func runKeySet(cmd *cobra.Command, args []string) error {
	var value string
	if len(args) == 1 {
		value = args[0]
	} else {
		err := huh.NewInput().
			Title("Gemini API key").
			EchoMode(huh.EchoModePassword).
			Value(&value).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("API key is required")
				}
				return nil
			}).
			Run()
		if err != nil {
			return err
		}
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("API key is empty")
	}
	if err := credential.Set(credential.GeminiKey, value); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
	return nil
}

func runKeyDelete(cmd *cobra.Command, args []string) error {
	if err := credential.Delete(credential.GeminiKey); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
	return nil
}

func runKeyStatus(cmd *cobra.Command, args []string) error {
	_, err := credential.APIKey()
	switch {
	case errors.Is(err, credential.ErrNotFound):
		fmt.Fprintln(cmd.OutOrStdout(), "No API key configured.")
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "API key configured.")
	return nil
}
