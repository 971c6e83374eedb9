// SPDX-License-Identifier: MIT
package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"zeoscribe/internal/config"
	"zeoscribe/pkg/build"
)

// Commands selected on the command line. An empty Command means nothing was
// selected: cobra already answered --help or --version and the caller exits.
const (
	CommandRun     = "run"
	CommandPorts   = "ports"
	CommandVersion = "version"
)

// Options holds the parsed command line.
type Options struct {
	Command     string
	ConfigPath  string
	Port        string
	Interactive bool
	Verbose     bool
	WebSocket   string // listen address; empty leaves the config untouched
	UDP         string // target address; empty leaves the config untouched
}

// ParseArgs parses args (without the program name).
func ParseArgs(args []string) (*Options, error) {
	return parseArgs(args, os.Stdout)
}

func parseArgs(args []string, out io.Writer) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         build.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandRun
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandPorts,
		Short: "List serial ports and sample sources",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandPorts
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandVersion,
		Short: "Show build information",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandVersion
		},
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", "",
		"Configuration file. Default is ./config.yaml or ./zeoscribe.yaml when present")
	flags.StringVarP(&options.Port, "port", "p", "",
		"Headband port: a serial port, 'sim' or a path to an .edf recording")
	flags.BoolVarP(&options.Interactive, "interactive", "i", false,
		"Choose the port and actuator settings in a dialog")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show verbose output")

	// Bridges
	flags.StringVar(&options.WebSocket, "ws", "",
		"Serve channels over WebSocket, e.g. --ws=:8080")
	flags.Lookup("ws").NoOptDefVal = config.DefaultWebSocketAddress
	flags.StringVar(&options.UDP, "udp", "",
		"Stream channel values over UDP, e.g. --udp=127.0.0.1:9090")
	flags.Lookup("udp").NoOptDefVal = config.DefaultUDPTarget

	rootCmd.SetOut(out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

// Apply overlays the command line onto cfg. Flags win over the file and the
// environment.
func (o *Options) Apply(cfg *config.Config) {
	if o.Port != "" {
		cfg.Device.Port = o.Port
	}
	if o.Interactive {
		cfg.Device.Interactive = true
	}
	if o.Verbose {
		cfg.Debug = true
	}
	if o.WebSocket != "" {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddress = o.WebSocket
	}
	if o.UDP != "" {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = o.UDP
	}
}
