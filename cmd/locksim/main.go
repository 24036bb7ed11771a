// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command locksim runs the lock-in core simulator and talks to running
// instances over HTTP.
//
// Usage:
//
//	locksim serve          run the simulator and its HTTP server
//	locksim map            print the register map
//	locksim conf           print the configuration
//	locksim mkconf         write the configuration file
//	locksim reg get NAME   read a register of a running server
//	locksim reg set NAME V write a register of a running server
//	locksim filter BLOCK   write filter coefficients of a running server
//	locksim version        print the version
//
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
