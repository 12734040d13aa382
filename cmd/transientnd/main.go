package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/lukaszgryglicki/transientnd/internal/transientnd"
)

func main() {
	transientnd.Debug = os.Getenv("DEBUG") != ""
	transientnd.UseLocks = os.Getenv("SKIP_LOCKS") == ""
	transientnd.PNG = os.Getenv("PNG") != ""
	transientnd.RAW = os.Getenv("RAW") != ""
	if os.Getenv("PROFILE") != "" {
		f, err := os.Create("cpu.out")
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	cfg := "scenes/flash.json"
	if len(os.Args) > 1 {
		cfg = os.Args[1]
	}
	if err := transientnd.Run(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
