package main

import "github.com/bryanchriswhite/winstate/cmd/winstate/commands"

func main() {
	commands.Execute()
}
