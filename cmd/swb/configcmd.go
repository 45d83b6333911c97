package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var outPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter switchboard.yaml",
		Long:  "Writes a commented starter config. Secrets are prompted for without echo and can be left blank to fill in later.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, outPath, force)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "switchboard.yaml", "where to write the config")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func runConfigInit(cmd *cobra.Command, outPath string, force bool) error {
	if _, err := os.Stat(outPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
	}

	botToken := promptSecret(cmd, "Discord bot token")
	apiKey := promptSecret(cmd, "OpenRouter API key")

	content := starterConfig(botToken, apiKey)
	if err := os.WriteFile(outPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s — fill in database.dsn and admins before serving\n", outPath)
	return nil
}

// promptSecret reads a secret without echo when stdin is a terminal, and
// falls back to a plain line read otherwise (pipes, CI).
func promptSecret(cmd *cobra.Command, label string) string {
	fmt.Fprintf(cmd.OutOrStdout(), "%s (blank to skip): ", label)
	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(secret))
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func starterConfig(botToken, apiKey string) string {
	return fmt.Sprintf(`# Switchboard configuration.
platform: discord

# Operator allow-list: platform user IDs allowed to work tickets.
admins: []

# Optional welcome banner shown on /start.
photo_url: ""

database:
  driver: postgres
  dsn: ""

gateway:
  api_key: %q
  # Fallback order, first is primary.
  models:
    - openai/gpt-4o-mini
    - google/gemini-2.0-flash-exp:free
  retry_backoff_sec: 3

discord:
  bot_token: %q

digest:
  enabled: true
  cron: "0 9 * * *"

dashboard:
  enabled: true
  port: 8080

alerts:
  slack_webhook_url: ""
`, apiKey, botToken)
}
