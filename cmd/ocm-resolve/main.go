package main

import "ocm.software/open-component-model/resolution/internal/cmd"

func main() {
	cmd.Execute()
}
