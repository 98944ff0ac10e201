package main

import (
	"log/slog"
	"net/http"
	"os"

	_ "net/http/pprof" // profiling

	"xtensa2arm/internal/xtensa2arm/cmd"
	"xtensa2arm/internal/xtensa2arm/log"
)

func main() {
	defer log.RecoverPanic("main", func() {
		slog.Error("Translator terminated due to unhandled panic")
	})

	if addr := os.Getenv("XTENSA2ARM_PROFILE"); addr != "" {
		if addr == "1" {
			addr = "localhost:6060"
		}
		go func() {
			slog.Info("Serving pprof", "addr", addr)
			if httpErr := http.ListenAndServe(addr, nil); httpErr != nil {
				slog.Error("Failed to pprof listen", "error", httpErr)
			}
		}()
	}

	cmd.Execute()
}
