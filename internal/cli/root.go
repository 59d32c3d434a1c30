// Package cli is the helpwave terminal client: a cobra command tree around
// the session controller with a line-based board.
package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkeye/HelpWave/internal/config"
	"github.com/dkeye/HelpWave/internal/logging"
)

type App struct {
	ServerURL string
	StatePath string
	Name      string

	cfg *config.ClientConfig
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "helpwave",
		Short:        "HelpWave room and doubt board client",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the board (resumes the last room if there is one)
  helpwave --name Sam

  # Talk to another backend
  helpwave --server http://helpwave.local:8080

  # Drop the stored session
  helpwave forget
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd.Context(), app, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadClient()
		if err != nil {
			return err
		}
		logging.Setup(cfg.LogLevel)
		if app.ServerURL == "" {
			app.ServerURL = cfg.ServerURL
		}
		if app.StatePath == "" {
			app.StatePath = cfg.StatePath
		}
		app.cfg = cfg
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", envOr("HELPWAVE_SERVER", ""), "Backend base URL")
	cmd.PersistentFlags().StringVar(&app.StatePath, "state", envOr("HELPWAVE_STATE", ""), "Path of the local session database")
	cmd.PersistentFlags().StringVar(&app.Name, "name", envOr("HELPWAVE_NAME", ""), "Guest name used by create and join")

	cmd.AddCommand(newForgetCmd(app))
	return cmd
}

// wsURL turns the backend base URL into its push-channel URL.
func wsURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path += "/ws"
	return u.String(), nil
}
