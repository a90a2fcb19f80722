package main

import (
	"fmt"
	"os"

	"github.com/complium/asset-inventory/cmd/cli/assets"
	"github.com/complium/asset-inventory/cmd/cli/auth"
	"github.com/complium/asset-inventory/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	assets.InitAssets(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
