package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/board/internal/client"
	"github.com/alfredjeanlab/board/internal/ui"
)

var (
	httpURL    string
	serverAddr string
	transport  string
	token      string
	jsonOutput bool
	noColor    bool

	boardClient client.BoardClient
)

func defaultHTTPURL() string {
	if s := os.Getenv("BOARD_HTTP_URL"); s != "" {
		return s
	}
	if u := activeRemote().URL; u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultServer() string {
	if s := os.Getenv("BOARD_SERVER"); s != "" {
		return s
	}
	if a := activeRemote().GRPCAddr; a != "" {
		return a
	}
	return "localhost:9090"
}

func defaultToken() string {
	if s := os.Getenv("BOARD_TOKEN"); s != "" {
		return s
	}
	return activeRemote().Token
}

// newClient builds the client selected by --transport.
func newClient() (client.BoardClient, error) {
	switch transport {
	case "http":
		return client.NewHTTPClient(httpURL, token), nil
	case "grpc":
		c, err := client.NewGRPCClient(serverAddr, token)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to server: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
	}
}

// noClient replaces the root pre-run for commands that never dial a server.
func noClient(cmd *cobra.Command, args []string) error {
	applyColorFlag()
	return nil
}

func applyColorFlag() {
	if noColor {
		ui.ForceNoColor()
	}
}

var rootCmd = &cobra.Command{
	Use:           "board <command>",
	Short:         "Grouped ticket board: server and CLI client",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		applyColorFlag()
		c, err := newClient()
		if err != nil {
			return err
		}
		boardClient = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if boardClient != nil {
			boardClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "transport protocol (http or grpc)")
	rootCmd.PersistentFlags().StringVar(&token, "token", defaultToken(), "bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "views", Title: "Views:"},
		&cobra.Group{ID: "display", Title: "Display:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Views
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(localCmd)

	// Display
	rootCmd.AddCommand(displayCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(orderCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
