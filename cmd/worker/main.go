package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker <summary|migrate> [flags]")
	}

	var err error
	switch os.Args[1] {
	case "summary":
		err = runSummary(os.Args[2:])
	case "migrate":
		err = runMigrate(os.Args[2:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}
