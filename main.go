package main

import "github.com/viktsys/marketetl/cmd"

func main() {
	cmd.Execute()
}
