// Package main is the entry point for the tacklemetrics CLI tool, which turns
// weekly NFL tracking and tackle data into a per-player tackle feature table.
package main

import "github.com/pable/nfl-tackle-metrics/cmd"

func main() {
	cmd.Execute()
}
