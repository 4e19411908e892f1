// Command sangam is the operator CLI for the Skill Sangam store: schema
// migration, catalog seeding and aggregate repair.
//
// Configuration comes from the environment (optionally a .env file); see
// package config for the variables.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
