package cli

import (
	stdcontext "context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/warden/internal/config"
)

const (
	envConfig         = "WARDEN_CONFIG"
	defaultConfigFile = "warden.yaml"
)

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	configFile := defaultConfigFile
	if value := os.Getenv(envConfig); value != "" {
		configFile = value
	}

	root := &cobra.Command{
		Use:   "warden",
		Short: "Keep a single companion process alive alongside the desktop shell",
	}

	root.PersistentFlags().
		StringVarP(&configFile, "config", "c", configFile, "Path to warden configuration (env "+envConfig+")")

	ctx := &context{configFile: &configFile}
	root.AddCommand(newRunCmd(ctx))
	root.AddCommand(newStatusCmd(ctx))
	root.AddCommand(newConfigCmd(ctx))
	root.AddCommand(newVersionCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint. Signals are left to the shell started by
// the run command, which maps them onto lifecycle triggers.
func Execute() {
	root := NewRootCmd()
	if err := root.ExecuteContext(stdcontext.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type context struct {
	configFile *string
}

// loadConfig reads the configuration file. A missing file is only an error
// when the user pointed at it explicitly.
func (c *context) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	required := os.Getenv(envConfig) != ""
	if flag := cmd.Flags().Lookup("config"); flag != nil && flag.Changed {
		required = true
	}
	return config.LoadOrDefault(*c.configFile, required)
}
