// Command modelhub manages local code-generation models: it lists the
// catalog, downloads and verifies weight files, and serves the HTTP API.
package main

import "os"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
