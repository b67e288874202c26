package main

import "github.com/jmehdipour/ivr-gateway/cmd"

func main() {
	cmd.Execute()
}
