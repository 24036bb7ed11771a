// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/db47h/locksim/internal/config"
	"github.com/db47h/locksim/top"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at link time.
var Version string

var rootCmd = &cobra.Command{
	Use:          "locksim",
	Short:        "Cycle accurate lock-in/PID core simulator",
	Long:         "locksim simulates a lock-in/PID FPGA core and exposes its register bus over HTTP.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().StringP("config", "c", config.FileName, "configuration file")
	rootCmd.AddCommand(serveCmd, mapCmd, confCmd, mkconfCmd, regCmd, filterCmd, versionCmd)
}

// setup loads the configuration and configures logging.
func setup(cmd *cobra.Command) config.Config {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.SetOutput(os.Stderr)

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.Level())
	if getFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
	return cfg
}

func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return r
}

func build(cfg config.Config) *top.System {
	opts, err := cfg.Options()
	if err != nil {
		log.Fatal(err)
	}
	s, err := top.New(opts)
	if err != nil {
		log.Fatal(err)
	}
	return s
}

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Print the register map",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := build(setup(cmd))
		defer s.Close()
		if getFlag(cmd, "json") {
			return s.Table().WriteJSON(os.Stdout)
		}
		return s.Table().WriteYAML(os.Stdout)
	},
}

var confCmd = &cobra.Command{
	Use:   "conf",
	Short: "Print the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd).Encode(os.Stdout)
	},
}

var mkconfCmd = &cobra.Command{
	Use:   "mkconf",
	Short: "Write the current configuration to the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := setup(cmd)
		path, _ := cmd.Flags().GetString("config")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return cfg.Encode(f)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print("locksim ")
		if Version != "" {
			fmt.Print(Version)
		} else if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Print(info.Main.Version)
		} else {
			fmt.Print("(unknown version)")
		}
		fmt.Println()
	},
}

func init() {
	mapCmd.Flags().Bool("json", false, "print JSON instead of YAML")
}
