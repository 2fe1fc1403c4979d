package main

import "github.com/poorfish/maptoposter/internal/cmd"

func main() {
	cmd.Execute()
}
