package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/brandlens/credentials"
)

// Auth command flags.
var (
	authAPIKey   string
	authProvider string
	authBaseURL  string
)

// NewAuthCommand creates the 'auth' command group.
func NewAuthCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the corroboration provider API key",
		Long: `Manage the API key used for external corroboration.

The key is stored in ~/.brandlens/credentials.yaml, encrypted at rest. The
encryption key is kept in the system keyring, or taken from
BRANDLENS_ENCRYPTION_KEY / BRANDLENS_PASSPHRASE where no keyring exists.

BRANDLENS_CORROBORATION_API_KEY takes precedence over the stored key.`,
	}

	cmd.AddCommand(newAuthSetKeyCommand(deps))
	cmd.AddCommand(newAuthStatusCommand(deps))
	cmd.AddCommand(newAuthClearCommand(deps))
	cmd.AddCommand(newAuthRotateKeyCommand(deps))
	return cmd
}

func newAuthSetKeyCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-key",
		Short: "Store the provider API key",
		Long: `Store the corroboration provider API key. Without --key the key is
read from the terminal without echo.

Examples:
  brandlens auth set-key
  brandlens auth set-key --key sk-... --base-url https://llm.internal/v1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(authAPIKey)
			if key == "" {
				var err error
				if key, err = deps.ReadSecret("API key: "); err != nil {
					return err
				}
			}
			if key == "" {
				return fmt.Errorf("no API key given")
			}

			store, err := deps.OpenCredentials()
			if err != nil {
				return fmt.Errorf("opening credential store: %w", err)
			}
			if err := store.Save(&credentials.Credentials{
				Provider: authProvider,
				APIKey:   key,
				BaseURL:  authBaseURL,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key %s saved to %s\n", credentials.MaskAPIKey(key), store.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&authAPIKey, "key", "", "API key (prompted when omitted)")
	cmd.Flags().StringVar(&authProvider, "provider", "openai", "Provider name")
	cmd.Flags().StringVar(&authBaseURL, "base-url", "", "OpenAI-compatible endpoint")
	return cmd
}

// authStatus is the 'auth status' report.
type authStatus struct {
	Configured  bool       `json:"configured" yaml:"configured"`
	Source      string     `json:"source,omitempty" yaml:"source,omitempty"`
	Provider    string     `json:"provider,omitempty" yaml:"provider,omitempty"`
	APIKey      string     `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string     `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	KeyStorage  string     `json:"key_storage,omitempty" yaml:"key_storage,omitempty"`
}

func newAuthStatusCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the API key comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := authStatus{}
			if v := os.Getenv(credentials.APIKeyEnv); v != "" {
				status.Configured = true
				status.Source = credentials.SourceEnv
				status.APIKey = credentials.MaskAPIKey(v)
			} else {
				store, err := deps.OpenCredentials()
				if err != nil {
					return fmt.Errorf("opening credential store: %w", err)
				}
				status.KeyStorage = store.KeyDescription()
				creds, err := store.Load()
				switch {
				case errors.Is(err, credentials.ErrNoCredentials):
				case err != nil:
					return err
				default:
					status.Configured = true
					status.Source = credentials.SourceStore
					status.Provider = creds.Provider
					status.APIKey = credentials.MaskAPIKey(creds.APIKey)
					status.BaseURL = creds.BaseURL
					if !creds.LastUpdated.IsZero() {
						status.LastUpdated = &creds.LastUpdated
					}
				}
			}

			return writeOutput(cmd.OutOrStdout(), deps.Config.OutputFormat, status, func(w io.Writer) error {
				if !status.Configured {
					fmt.Fprintln(w, "No API key configured. Run 'brandlens auth set-key'.")
					return nil
				}
				fmt.Fprintf(w, "Source:   %s\n", status.Source)
				fmt.Fprintf(w, "API key:  %s\n", status.APIKey)
				if status.Provider != "" {
					fmt.Fprintf(w, "Provider: %s\n", status.Provider)
				}
				if status.BaseURL != "" {
					fmt.Fprintf(w, "Base URL: %s\n", status.BaseURL)
				}
				if status.LastUpdated != nil {
					fmt.Fprintf(w, "Updated:  %s\n", status.LastUpdated.Local().Format(time.RFC3339))
				}
				if status.KeyStorage != "" {
					fmt.Fprintf(w, "Storage:  %s\n", status.KeyStorage)
				}
				return nil
			})
		},
	}
}

func newAuthClearCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored API key",
		Long: `Delete the stored credentials file. The environment override is not
affected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.OpenCredentials()
			if err != nil {
				return fmt.Errorf("opening credential store: %w", err)
			}
			if !store.Exists() {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored credentials.")
				return nil
			}
			if err := store.Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stored credentials removed.")
			return nil
		},
	}
}

func newAuthRotateKeyCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-key",
		Short: "Re-encrypt stored credentials with a new key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.OpenCredentials()
			if err != nil {
				return fmt.Errorf("opening credential store: %w", err)
			}
			if err := store.RotateKey(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Encryption key rotated.")
			return nil
		},
	}
}
