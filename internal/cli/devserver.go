package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/memberbooth/internal/directory/devstore"
	"github.com/existflow/memberbooth/internal/logger"
	"github.com/existflow/memberbooth/server"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Serve a development member directory",
	Long: `Serve the makeradmin memberbooth API from the local development store.
A fresh API token is printed on start; log in with it after pointing
makeradmin_url at this server.`,
	RunE: runDevserver,
}

func init() {
	devserverCmd.Flags().String("addr", "", "Listen address (default from config)")
	devserverCmd.Flags().String("store", "", "Development store path (default from config)")
}

func runDevserver(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.DevServerAddress
	}
	path, _ := cmd.Flags().GetString("store")
	if path == "" {
		path = cfg.DevStorePath
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := devstore.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open development store: %w", err)
	}
	defer func() {
		_ = store.Close()
		logger.Info("Development store closed")
	}()
	if err := store.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed development store: %w", err)
	}

	token, err := store.NewToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	fmt.Printf("Development directory on %s\n", addr)
	fmt.Printf("🔑 Token: %s\n", token)
	fmt.Printf("Mock member #%d, tag %s, PIN %s\n", devstore.MockMemberNumber, devstore.MockTag, devstore.MockPin)

	srv := server.New(store)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(addr) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
