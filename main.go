package main

import "ocrprep/cmd"

func main() {
	cmd.Execute()
}
