// fuelscan is the command-line companion to fuelscand: process single
// receipts, run directories as batches, and export stored records.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
