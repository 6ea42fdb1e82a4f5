// Package main provides a one-shot utility for bearer auth key generation.
//
// It emits the asymmetric keypair used to sign and verify caller tokens.
package main

import (
	"os"

	"github.com/qerralabs/launchpad/internal/platform/config"
	"github.com/qerralabs/launchpad/internal/tools/authkey"
)

func main() {
	if err := authkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate auth key: %v", err)
	}
}
