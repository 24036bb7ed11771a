// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/db47h/locksim/client"
	"github.com/spf13/cobra"
)

// remote connects to the server named by the --url flag. The bus data width
// is inferred from the server's register map.
func remote(cmd *cobra.Command) (*client.Client, error) {
	setup(cmd)
	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return nil, err
	}
	r := client.NewRemote(url)
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	table, err := r.Table(ctx)
	if err != nil {
		return nil, err
	}
	dw, err := table.DataWidth()
	if err != nil {
		return nil, err
	}
	return client.New(r, table, dw), nil
}

var regCmd = &cobra.Command{
	Use:   "reg",
	Short: "Read or write registers of a running server",
}

var regGetCmd = &cobra.Command{
	Use:   "get NAME...",
	Short: "Read registers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := remote(cmd)
		if err != nil {
			return err
		}
		for _, name := range args {
			v, err := cl.GetInt(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Printf("%s = %d\n", name, v)
		}
		return nil
	},
}

var regSetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Write a register",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.ParseInt(args[1], 0, 64)
		if err != nil {
			return err
		}
		cl, err := remote(cmd)
		if err != nil {
			return err
		}
		return cl.Set(cmd.Context(), args[0], v)
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter BLOCK",
	Short: "Write the coefficients of a filter stage of a running server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := cmd.Flags().GetInt64Slice("a")
		if err != nil {
			return err
		}
		b, err := cmd.Flags().GetInt64Slice("b")
		if err != nil {
			return err
		}
		cl, err := remote(cmd)
		if err != nil {
			return err
		}
		return cl.SetFilter(cmd.Context(), args[0], a, b)
	},
}

func init() {
	for _, c := range []*cobra.Command{regCmd, filterCmd} {
		c.PersistentFlags().String("url", "http://localhost:8000", "server URL")
	}
	regCmd.AddCommand(regGetCmd, regSetCmd)
	filterCmd.Flags().Int64Slice("a", nil, "a coefficients, a0 first")
	filterCmd.Flags().Int64Slice("b", nil, "b coefficients, b0 first")
}
