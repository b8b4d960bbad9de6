package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flashcart64/sc64ctl/internal/engine"
	"github.com/flashcart64/sc64ctl/internal/transport"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sc64ctl",
		Short: "Control and debug an SC64 flashcart over USB-serial",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.sc64ctl.yaml)")
	root.PersistentFlags().String("port", "", "serial device path (default: auto-discover)")
	viper.BindPFlag("port", root.PersistentFlags().Lookup("port"))

	cobra.OnInitialize(initConfig)

	root.AddCommand(
		newUploadCmd(),
		newBackupCmd(),
		newResetCmd(),
		newPrintStateCmd(),
		newSetCmd(),
		newUpdateCmd(),
		newDebugCmd(),
		newBringupCmd(),
	)
	return root
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".sc64ctl")
		}
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// openEngine resolves the configured or auto-discovered serial port, opens
// a transport against it, and wraps it in a command engine. Callers are
// responsible for closing the returned transport via its Close method.
func openEngine() (*engine.Engine, *transport.Transport, error) {
	port := viper.GetString("port")
	if port == "" {
		discovered, err := transport.DiscoverOne()
		if err != nil {
			return nil, nil, err
		}
		port = discovered
	}
	t, err := transport.Open(port)
	if err != nil {
		return nil, nil, err
	}
	return engine.New(t), t, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
