package cmd

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"seriald/internal/hub"
	"seriald/internal/serial"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seriald",
	Short: "Bridge hardware serial devices to a request/response protocol",
	Long: `seriald keeps long-lived connections to hardware serial devices
(microcontroller boards, sensors, radios) and exposes them through a
line-delimited JSON protocol: open, read, write, close, status.

Each open device is drained continuously in the background into a bounded
line buffer, so protocol reads always return immediately with whatever has
arrived so far and never stall waiting on the device.

Run "seriald serve" for the daemon, or use the one-shot commands (list,
send, monitor) directly against local devices.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.seriald.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetDefault("baud", serial.DefaultBaudRate)
	viper.SetDefault("buffer_lines", hub.DefaultBufferLines)
	viper.SetDefault("listen", "")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".seriald")
	}

	viper.SetEnvPrefix("seriald")
	viper.AutomaticEnv()

	// A missing config file is fine; flags and env cover everything.
	_ = viper.ReadInConfig()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("log_level"))); err == nil {
		zerolog.SetGlobalLevel(level)
	}
}
