package main

import "github.com/frahmantamala/taktplan/cmd"

func main() {
	cmd.Execute()
}
