package main

import "github.com/nwafound/ramp-bc-export/internal/cli"

func main() {
	cli.Execute()
}
