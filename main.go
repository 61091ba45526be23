package main

import "github.com/Ronuhz/ubborarservice/cmd"

func main() {
	cmd.Execute()
}
