package main

import (
	"voicepipe/cmd/voicepipe/cmd"
)

func main() {
	cmd.Execute()
}
