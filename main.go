// Command swarf plans raster toolpaths for an STL relief.
package main

import "os"

var version = "dev"

func main() {
	setVersion(version)

	if err := execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}
