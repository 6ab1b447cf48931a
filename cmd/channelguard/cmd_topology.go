package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/channel-guard/channelguard/pkg/cli"
	"github.com/channel-guard/channelguard/pkg/topology"
)

func newTopologyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "topology",
		Aliases: []string{"topo"},
		Short:   "Manage saved topologies",
	}
	cmd.AddCommand(
		newTopologyListCmd(),
		newTopologySaveAsCmd(),
		newTopologyLoadCmd(),
		newTopologyDeleteCmd(),
		newTopologyImportCmd(),
		newTopologyExportCmd(),
	)
	return cmd
}

func newTopologyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved topologies",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			infos, err := st.List()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Println("No saved topologies.")
				return nil
			}
			table := cli.NewTable("NAME", "CHANNELS", "SIZE", "MODIFIED")
			for _, info := range infos {
				table.Row(info.Name,
					strconv.Itoa(info.Channels),
					fmt.Sprintf("%dB", info.Size),
					info.Modified.Format("2006-01-02 15:04"))
			}
			table.Flush()
			return nil
		},
	}
}

func newTopologySaveAsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save-as <name>",
		Short: "Save the active topology under a new name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			topo, err := st.LoadActive()
			if err != nil {
				return err
			}
			if err := st.SaveAs(args[0], topo); err != nil {
				return err
			}
			fmt.Println(cli.Green("✓"), "saved as", args[0])
			return nil
		},
	}
}

func newTopologyLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <name>",
		Short: "Make a saved topology the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			topo, err := st.Activate(args[0])
			if err != nil {
				return err
			}
			fmt.Println(cli.Green("✓"), fmt.Sprintf("activated %s (%d channels)", args[0], len(topo.Channels)))
			return nil
		},
	}
}

func newTopologyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved topology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			if err := st.Delete(args[0]); err != nil {
				return err
			}
			fmt.Println(cli.Green("✓"), "deleted", args[0])
			return nil
		},
	}
}

func newTopologyImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a YAML file as the active topology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			topo, err := topology.Decode(data)
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			if err := st.SaveActive(topo); err != nil {
				return err
			}
			fmt.Println(cli.Green("✓"), fmt.Sprintf("imported %s (%d channels)", args[0], len(topo.Channels)))
			return nil
		},
	}
}

func newTopologyExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active topology as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			data, err := st.Export()
			if err != nil {
				return err
			}
			if out == "" {
				os.Stdout.Write(data)
				return nil
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Println(cli.Green("✓"), "exported to", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")
	return cmd
}
