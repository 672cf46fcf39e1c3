package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-input/internal/hardware"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "graylogic-input",
		Short: "Gray Logic Input - evdev devices as an observable node graph",
		Long: `graylogic-input binds Linux input devices to graph nodes, routes key,
LED, axis and switch events to per-feature nodes, and mirrors the graph
to MQTT, InfluxDB and an HTTP API.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors:      true,
		SilenceUsage:       true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
	}

	root.AddCommand(newRunCmd(), newDevicesCmd(hardware.NewEvdevAdapter()), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the input bridge until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ConfigPath = resolveConfigPath(opts.ConfigPath)
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default $GRAYLOGIC_CONFIG or "+defaultConfigPath+")")
	cmd.Flags().BoolVar(&opts.Simulate, "simulate", false, "use a simulated keyboard instead of /dev/input")
	return cmd
}

func newDevicesCmd(adapter hardware.Adapter) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List input devices and their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listDevices(cmd.OutOrStdout(), adapter)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "graylogic-input %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
