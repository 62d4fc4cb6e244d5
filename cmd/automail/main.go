package main

import "github.com/automailhq/automail/internal/cmd"

func main() {
	cmd.Execute()
}
