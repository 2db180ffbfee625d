package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var remoteCmd = &cobra.Command{
	Use:     "remote",
	Short:   "Manage named server remotes",
	GroupID: "system",
	// Remote subcommands only touch the local remotes file.
	PersistentPreRunE: noClient,
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add or update a named remote",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		grpcAddr, _ := cmd.Flags().GetString("grpc")
		tok, _ := cmd.Flags().GetString("token")
		natsURL, _ := cmd.Flags().GetString("nats")
		return addRemote(cmd.OutOrStdout(), args[0], Remote{URL: args[1], GRPCAddr: grpcAddr, Token: tok, NATSURL: natsURL})
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return removeRemote(cmd.OutOrStdout(), args[0])
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all remotes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRemotes(cmd.OutOrStdout())
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return useRemote(cmd.OutOrStdout(), args[0])
	},
}

func addRemote(w io.Writer, name string, r Remote) error {
	cfg, err := loadRemotesConfig()
	if err != nil {
		return err
	}
	cfg.Remotes[name] = r
	if err := saveRemotesConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintf(w, "remote %q added (%s)\n", name, r.URL)
	return nil
}

func removeRemote(w io.Writer, name string) error {
	cfg, err := loadRemotesConfig()
	if err != nil {
		return err
	}
	if _, ok := cfg.Remotes[name]; !ok {
		return fmt.Errorf("remote %q not found", name)
	}
	delete(cfg.Remotes, name)
	if cfg.Active == name {
		cfg.Active = ""
	}
	if err := saveRemotesConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintf(w, "remote %q removed\n", name)
	return nil
}

func useRemote(w io.Writer, name string) error {
	cfg, err := loadRemotesConfig()
	if err != nil {
		return err
	}
	if _, ok := cfg.Remotes[name]; !ok {
		return fmt.Errorf("remote %q not found", name)
	}
	cfg.Active = name
	if err := saveRemotesConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintf(w, "active remote set to %q\n", name)
	return nil
}

func listRemotes(w io.Writer) error {
	cfg, err := loadRemotesConfig()
	if err != nil {
		return err
	}
	if len(cfg.Remotes) == 0 {
		fmt.Fprintln(w, "no remotes configured")
		return nil
	}
	names := make([]string, 0, len(cfg.Remotes))
	for name := range cfg.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tURL\tGRPC\tTOKEN")
	for _, name := range names {
		r := cfg.Remotes[name]
		marker := "  "
		if name == cfg.Active {
			marker = "* "
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\n", marker, name, r.URL, r.GRPCAddr, maskToken(r.Token))
	}
	return tw.Flush()
}

// maskToken keeps the first 8 characters of a token.
func maskToken(tok string) string {
	if len(tok) <= 8 {
		return tok
	}
	return tok[:8] + strings.Repeat("*", len(tok)-8)
}

func init() {
	remoteAddCmd.Flags().String("grpc", "", "gRPC address of the server")
	remoteAddCmd.Flags().String("token", "", "bearer token for authentication")
	remoteAddCmd.Flags().String("nats", "", "NATS URL for event streaming")

	remoteCmd.AddCommand(remoteAddCmd)
	remoteCmd.AddCommand(remoteRemoveCmd)
	remoteCmd.AddCommand(remoteListCmd)
	remoteCmd.AddCommand(remoteUseCmd)
}
