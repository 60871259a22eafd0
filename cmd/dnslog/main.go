package main

import "github.com/atikulmunna/dnslog/internal/cmd"

func main() {
	cmd.Execute()
}
