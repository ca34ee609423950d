// Chirp is a peer-to-peer service discovery tool for local networks.
//
// It speaks CHIRP (Constellation Host Identification and Reconnaissance
// Protocol), a lightweight UDP broadcast protocol: nodes announce which
// named services they host, discover peers offering a desired service,
// and learn when peers leave. There is no central registry; any set of
// processes sharing a group name on one broadcast domain forms a fleet.
//
// Usage:
//
//	chirp [command] [flags]
//
// Running without arguments launches the interactive watch screen.
// See 'chirp --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cnstln/chirp/internal/logging"
	"github.com/cnstln/chirp/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chirp",
	Short: "CHIRP Service Discovery",
	Long: `A peer-to-peer service discovery tool for local networks.

Nodes in the same group discover each other over UDP broadcast: 'chirp
announce' registers and announces the services this node hosts, 'chirp
watch' shows the services announced by peers, and 'chirp listen' dumps
raw CHIRP traffic for debugging.

If no command is specified, the watch screen will launch automatically.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: watch when no subcommand provided
		return runWatch(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&groupFlag, "group", "", "group name (default from config file)")
	rootCmd.PersistentFlags().StringVar(&nameFlag, "name", "", "node name (default from config file, then hostname)")
	rootCmd.PersistentFlags().StringVar(&brdFlag, "brd", "", "broadcast address (default from config file)")
	rootCmd.PersistentFlags().StringVar(&anyFlag, "any", "", "receiver bind address (default from config file)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default silent; or CHIRP_LOG_LEVEL)")

	rootCmd.AddCommand(announceCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chirp %s (commit: %s)\n", version.Version, version.Commit)
	},
}
