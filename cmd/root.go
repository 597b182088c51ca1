package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/xwire/cmd/gen"
	"github.com/luma/xwire/internal/meta"
)

var rootCmd = &cobra.Command{
	Use:   "xwire",
	Short: "Wire protocol engine with a debug server and an interactive client",
	Long: `xwire frames, sends and receives database protocol messages.

The binary bundles a debug server (listen) that answers requests with
echoed result sets, and an interactive client (probe) for poking at it.
`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := meta.GetInfo()

		fmt.Printf("xwire %s (%s, %s)\n", info.Version, info.Build, info.Branch)
		fmt.Printf("  built %s with %s %s\n", info.BuildTime, info.GoVersion, info.Platform)
	},
}

func init() {
	rootCmd.AddCommand(ListenCmd)
	rootCmd.AddCommand(ProbeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
