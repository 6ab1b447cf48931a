package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/channel-guard/channelguard/pkg/cli"
	"github.com/channel-guard/channelguard/pkg/compiler"
	"github.com/channel-guard/channelguard/pkg/util"
)

func newPreviewCmd() *cobra.Command {
	var showRollback, showVerify bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the commands a deploy would send",
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := loadTopology()
			if err != nil {
				return err
			}

			cmds := compiler.Apply(topo)
			switch {
			case showRollback:
				cmds = compiler.Rollback(topo)
			case showVerify:
				cmds = compiler.Verify(topo)
			}
			fmt.Println(strings.Join(cmds, "\n"))

			fmt.Println()
			printSummary(compiler.Summarize(topo))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showRollback, "rollback", false, "show rollback commands instead")
	cmd.Flags().BoolVar(&showVerify, "verify", false, "show verification commands instead")
	return cmd
}

func printSummary(s compiler.Summary) {
	vlans := make([]string, len(s.VLANs))
	for i, v := range s.VLANs {
		vlans[i] = fmt.Sprintf("%d", v)
	}

	kv := cli.NewKV()
	kv.Pair("Platform", s.Platform)
	kv.Pair("Channels", s.Channels)
	kv.Pair("I/O blocks", s.IOBlocks)
	kv.Pair("Devices", s.Devices)
	kv.Pair("Bindings", s.Bindings)
	kv.Pair("VLANs", strings.Join(vlans, ", "))
	kv.Pair("Commands", s.TotalCommands)
	kv.Pair("Mechanisms", strings.Join(s.Mechanisms, ", "))
	kv.Flush()
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the working topology",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := loadTopology()
			var verr *util.ValidationError
			if errors.As(err, &verr) {
				for _, msg := range verr.Errors {
					fmt.Println(cli.Red("✗"), msg)
				}
				return fmt.Errorf("%d validation error(s)", len(verr.Errors))
			}
			if err != nil {
				return err
			}
			fmt.Println(cli.Green("✓"), "topology is valid")
			return nil
		},
	}
}
