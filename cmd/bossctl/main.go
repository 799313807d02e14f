package main

import "boss-timer-api/internal/cli"

func main() {
	cli.Execute()
}
