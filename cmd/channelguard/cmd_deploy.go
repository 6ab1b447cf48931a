package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/channel-guard/channelguard/pkg/cli"
	"github.com/channel-guard/channelguard/pkg/compiler"
	"github.com/channel-guard/channelguard/pkg/session"
	sshtransport "github.com/channel-guard/channelguard/pkg/session/ssh"
	"github.com/channel-guard/channelguard/pkg/topology"
)

// connFlags are the switch connection flags shared by deploy, verify, and
// rollback.
type connFlags struct {
	host           string
	username       string
	password       string
	enablePassword string
	dialect        string
}

func (f *connFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.host, "host", "H", "", "switch IP address (required)")
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "SSH username (required)")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "SSH password (prompted when omitted)")
	cmd.Flags().StringVar(&f.enablePassword, "enable-password", "", "enable secret, if the account lands in user EXEC mode")
	cmd.Flags().StringVar(&f.dialect, "dialect", "auto", "switch dialect: auto, classic, or xe")
	cmd.MarkFlagRequired("host")
	cmd.MarkFlagRequired("username")
}

func (f *connFlags) hint() session.DialectHint {
	switch f.dialect {
	case "", "auto":
		return session.HintAuto
	default:
		if topology.ParseDialect(f.dialect) == topology.DialectNextGen {
			return session.HintNextGen
		}
		return session.HintClassic
	}
}

// connect opens the administrative session, prompting for the password when
// it was not given on the command line.
func (f *connFlags) connect(ctx context.Context) (*session.Controller, error) {
	if f.password == "" {
		fmt.Fprintf(os.Stderr, "Password for %s@%s: ", f.username, f.host)
		pw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		f.password = string(pw)
	}

	ctrl := session.NewController(sshtransport.New())
	st, err := ctrl.Connect(ctx, session.Options{
		Host:           f.host,
		Username:       f.username,
		Password:       f.password,
		EnablePassword: f.enablePassword,
		Dialect:        f.hint(),
	})
	if err != nil {
		return nil, err
	}
	fmt.Printf("Connected to %s (%s, IOS %s)\n", st.Host, st.Platform.Label, st.Platform.IOSVersion)
	return ctrl, nil
}

func newDeployCmd() *cobra.Command {
	var flags connFlags
	var execute, save bool

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the port-security configuration to a switch",
		Long: `Deploy the compiled port-security configuration to a switch.

Without -x this is a dry run: the command list is printed and nothing is
sent. With -x the commands are pushed over SSH; add -s to also write the
configuration to NVRAM afterward.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := loadTopology()
			if err != nil {
				return err
			}
			cmds := compiler.Apply(topo)

			if !execute {
				fmt.Println(strings.Join(cmds, "\n"))
				fmt.Println()
				fmt.Printf("Dry run: %d commands. Use -x to deploy.\n", len(cmds))
				return nil
			}

			ctrl, err := flags.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer ctrl.Disconnect()

			// The compiled dialect must match the session we actually got.
			topo.Dialect = string(ctrl.Platform().Dialect)
			cmds = compiler.Apply(topo)

			out, err := ctrl.Execute(cmd.Context(), cmds)
			if err != nil {
				return err
			}
			fmt.Println(out)

			if save {
				saveOut, err := ctrl.SaveConfig(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Println(saveOut)
			}
			fmt.Println(cli.Green("✓"), fmt.Sprintf("deployed %d commands to %s", len(cmds), flags.host))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&execute, "execute", "x", false, "execute on the switch (default is dry run)")
	cmd.Flags().BoolVarP(&save, "save", "s", false, "write memory after deploying")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var flags connFlags

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run verification show commands against a switch",
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := loadTopology()
			if err != nil {
				return err
			}

			ctrl, err := flags.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer ctrl.Disconnect()

			topo.Dialect = string(ctrl.Platform().Dialect)
			for _, c := range compiler.Verify(topo) {
				out, err := ctrl.Run(cmd.Context(), c)
				if err != nil {
					return err
				}
				fmt.Println(cli.Bold("# " + c))
				fmt.Println(out)
				fmt.Println()
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newRollbackCmd() *cobra.Command {
	var flags connFlags
	var execute, save bool

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Remove the deployed port-security configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := loadTopology()
			if err != nil {
				return err
			}
			cmds := compiler.Rollback(topo)

			if !execute {
				fmt.Println(strings.Join(cmds, "\n"))
				fmt.Println()
				fmt.Printf("Dry run: %d commands. Use -x to roll back.\n", len(cmds))
				return nil
			}

			ctrl, err := flags.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer ctrl.Disconnect()

			topo.Dialect = string(ctrl.Platform().Dialect)
			cmds = compiler.Rollback(topo)

			out, err := ctrl.Execute(cmd.Context(), cmds)
			if err != nil {
				return err
			}
			fmt.Println(out)

			if save {
				if _, err := ctrl.SaveConfig(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Println(cli.Green("✓"), fmt.Sprintf("rolled back %d commands on %s", len(cmds), flags.host))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&execute, "execute", "x", false, "execute on the switch (default is dry run)")
	cmd.Flags().BoolVarP(&save, "save", "s", false, "write memory after rolling back")
	return cmd
}
