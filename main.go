// Package main is the entry point for the dcwbuild CLI, which fetches Destiny
// Clan Warfare data and writes the static site's snapshot and route data.
package main

import "github.com/pable/dcwbuild/cmd"

func main() {
	cmd.Execute()
}
