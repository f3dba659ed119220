package cmd

import (
	"fmt"
	"io"
)

const banner = `
  ___ ___ ___   ___         _   
 | __| _ \ _ \ |   \ ___ __| |__
 | _||   /  _/ | |) / -_|_-< / /
 |___|_|_\_|   |___/\___/__/_\_\
`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  ERP Dashboard API - Version %s\x1b[0m\n\n", Version)
}
