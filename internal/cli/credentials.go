package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/jobtracker/internal/credential"
)

// credentialKeys maps the user-facing names to keyring keys.
var credentialKeys = map[string]string{
	"email":    credential.KeyEmailAddress,
	"password": credential.KeyEmailPassword,
	"api-key":  credential.KeyAPIKey,
}

func newCredentialsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage stored credentials",
		Long: `Store the mailbox address, app-specific password, and provider API
key in the system keyring. Environment variables (EMAIL,
EMAIL_PASSWORD, OPENROUTER_API_KEY) take precedence when set.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <email|password|api-key>",
		Short: "Store a credential (value read from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := credentialKeys[args[0]]
			if !ok {
				return fmt.Errorf("unknown credential %q (want email, password, or api-key)", args[0])
			}

			fmt.Fprintf(os.Stderr, "Enter value for %s: ", args[0])
			reader := bufio.NewReader(os.Stdin)
			value, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading credential value: %w", err)
			}

			value = strings.TrimSpace(value)
			if value == "" {
				return fmt.Errorf("empty credential value")
			}

			return credential.Set(key, value)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear <email|password|api-key>",
		Short: "Remove a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := credentialKeys[args[0]]
			if !ok {
				return fmt.Errorf("unknown credential %q (want email, password, or api-key)", args[0])
			}
			return credential.Delete(key)
		},
	})

	return cmd
}
