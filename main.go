package main

import "github.com/frahmantamala/gogotime/cmd"

func main() {
	cmd.Execute()
}
