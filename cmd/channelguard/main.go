// Channel Guard deploys layered port security to industrial switch segments.
//
// channelguard compiles a declarative topology of uplinks, channels, and
// bound devices into the ordered CLI command sequence that configures DHCP
// snooping, IP Source Guard, port security, BPDU guard, and PortFast, and
// pushes it over a single administrative SSH session.
//
// Usage:
//
//	channelguard preview                    Show the commands a deploy would send
//	channelguard validate                   Validate the active topology
//	channelguard deploy -H <ip> -u <user>   Deploy to a switch (dry-run without -x)
//	channelguard verify -H <ip> -u <user>   Run verification show commands
//	channelguard rollback -H <ip> -u <user> Remove the deployed configuration
//	channelguard topology list              Manage saved topologies
//	channelguard serve                      Start the HTTP API
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/channel-guard/channelguard/pkg/store"
	"github.com/channel-guard/channelguard/pkg/topology"
	"github.com/channel-guard/channelguard/pkg/util"
	"github.com/channel-guard/channelguard/pkg/version"
)

var (
	topologyDir  string
	topologyFile string
	verbose      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "channelguard",
	Short:             "Port-security deployment for industrial switch segments",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Channel Guard compiles a declarative network topology into the ordered
switch CLI commands for a layered port-security policy (DHCP snooping,
IP Source Guard, port security, BPDU guard, PortFast) and manages the
administrative session used to push and verify it.

Write commands preview by default; use -x to execute on the switch.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			return util.SetLogLevel("debug")
		}
		return util.SetLogLevel("warn")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&topologyDir, "topologies", "T", "topologies", "topology directory")
	rootCmd.PersistentFlags().StringVarP(&topologyFile, "file", "f", "", "topology file (overrides the active topology)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newPreviewCmd(),
		newValidateCmd(),
		newDeployCmd(),
		newVerifyCmd(),
		newRollbackCmd(),
		newTopologyCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("channelguard", version.Info())
		},
	}
}

// openStore opens the topology directory selected by the -T flag.
func openStore() (*store.Store, error) {
	return store.New(topologyDir)
}

// loadTopology returns the validated working topology: the -f file when
// given, otherwise the store's active topology.
func loadTopology() (*topology.Topology, error) {
	var topo *topology.Topology

	if topologyFile != "" {
		data, err := os.ReadFile(topologyFile)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", topologyFile, err)
		}
		topo, err = topology.Decode(data)
		if err != nil {
			return nil, err
		}
	} else {
		st, err := openStore()
		if err != nil {
			return nil, err
		}
		topo, err = st.LoadActive()
		if err != nil {
			return nil, err
		}
	}

	if errs := topology.Validate(topo); len(errs) > 0 {
		return nil, util.NewValidationError(errs...)
	}
	return topo, nil
}
