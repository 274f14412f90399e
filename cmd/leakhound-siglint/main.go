// Command leakhound-siglint validates signature documents offline
package main

import (
	"flag"
	"fmt"
	"os"

	"leakhound/internal/core/signatures"
	pstrings "leakhound/internal/platform/strings"
)

func main() {
	var (
		fCustom = flag.String("custom", "", "extra signature file merged after the base set")
		fIgnore = flag.String("ignore", "", "ignore rule file to validate alongside")
	)
	flag.Parse()

	base := ""
	if flag.NArg() > 0 {
		base = flag.Arg(0)
	}

	set, err := signatures.LoadFiles(base, *fCustom, *fIgnore)
	if err != nil {
		fmt.Fprintf(os.Stderr, "siglint: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("ok: %s, %s\n",
		pstrings.Pluralize(set.Len(), "signature", "signatures"),
		pstrings.Pluralize(len(set.IgnoreRules()), "ignore rule", "ignore rules"))
}
