// Package main は profilectl CLI のエントリーポイント。
package main

import (
	"os"

	"github.com/k1s0-platform/system-server-go-profile/cmd/profilectl/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
