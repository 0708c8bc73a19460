package main

import "rt-dicom-toolkit/internal/cli"

func main() {
	cli.Execute()
}
