package main

import "github.com/example/pickupshop/cmd/shopctl/cmd"

func main() {
	cmd.Execute()
}
