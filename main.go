package main

import "github.com/openchatops/oco/cmd"

func main() {
	cmd.Execute()
}
