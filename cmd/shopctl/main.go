// Command shopctl browses the OmifemCuts catalog and runs admin tasks
// against a running shop API.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"omifemcuts/internal/util"
	"omifemcuts/pkg/shopclient"
)

type options struct {
	apiURL   string
	token    string
	timeout  time.Duration
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "OmifemCuts shop command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.InitLogger(opts.logLevel)
		},
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("SHOPCTL_API", "http://localhost:8080"), "Shop API base URL (or set SHOPCTL_API)")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("SHOPCTL_TOKEN"), "Session token (or set SHOPCTL_TOKEN)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	root.AddCommand(
		newLoginCmd(opts),
		newBrowseCmd(opts),
		newStyleCmd(opts),
		newLikeCmd(opts),
		newReviewsCmd(opts),
		newLinksCmd(opts),
		newDashboardCmd(opts),
		newAdminCmd(opts),
		newEventsCmd(opts),
	)
	return root
}

func (o *options) client() *shopclient.Client {
	return shopclient.NewClient(o.apiURL)
}

// session restores the --token session, failing when none was given.
func (o *options) session(ctx context.Context) (*shopclient.Session, error) {
	session := shopclient.NewSession(o.client())
	if strings.TrimSpace(o.token) == "" {
		return nil, fmt.Errorf("no session token: run `shopctl login` and pass --token or SHOPCTL_TOKEN")
	}
	if _, err := session.Restore(ctx, o.token); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return session, nil
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
