package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/logger"
	"github.com/existflow/memberbooth/internal/notify"
	"github.com/existflow/memberbooth/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the member directory and Slack tokens",
	Long: `Prompt for the makeradmin token and the Slack bot token, verify them and
store them in the configured token files. Leave a prompt empty to keep the
current token.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().Bool("skip-slack", false, "Only log in to the member directory")
}

func runLogin(cmd *cobra.Command, args []string) error {
	skipSlack, _ := cmd.Flags().GetBool("skip-slack")

	client := directory.NewClient(cfg.MakerAdminURL, cfg.MakerAdminToken)
	if err := login(cmd.Context(), "Makeradmin token", client.Session()); err != nil {
		return err
	}

	if skipSlack || cfg.NoSlack {
		return nil
	}
	slack := notify.NewSlack(cfg.SlackTokenPath, cfg.SlackChannelID)
	if err := login(cmd.Context(), "Slack bot token", slack.Session()); err != nil {
		return err
	}
	slack.Info("Memberbooth logged in")
	return nil
}

func login(ctx context.Context, prompt string, s *session.Session) error {
	fmt.Printf("%s: ", prompt)
	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		fmt.Println("Keeping the current token.")
		return nil
	}

	fmt.Println("🔄 Verifying token...")
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.Login(ctx, token); err != nil {
		logger.Error("Login failed", logger.F("path", s.Path()), logger.Err(err))
		fmt.Fprintf(os.Stderr, "❌ Token rejected: %v\n", err)
		return err
	}

	logger.Info("Token stored", logger.F("path", s.Path()))
	fmt.Printf("✅ Token stored in %s\n", s.Path())
	return nil
}
