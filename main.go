package main

import "github.com/elgorro/DeleteDuplicatedMediaFiles/cmd"

func main() {
	cmd.Execute()
}
