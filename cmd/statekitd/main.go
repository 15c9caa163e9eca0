// statekitd serves the statekit stores over HTTP and server-sent events.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/statekit/config"
	"github.com/kbukum/statekit/internal/daemon"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           daemon.ServiceName,
		Short:         "Reducer stores and query caches behind an HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default: config.yml under ./cmd/statekitd, ./config or .)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file loaded before the environment")

	root.AddCommand(newServeCmd(flags), newValidateCmd(flags), newVersionCmd())
	return root
}

func (f *rootFlags) load() (daemon.Config, error) {
	var opts []config.LoaderOption
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}
	return daemon.Load(opts...)
}
