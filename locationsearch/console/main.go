package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"reuseit/internal/config"
	"reuseit/internal/logging"
	"reuseit/locationsearch/search"
)

// Reads address fragments line by line from stdin and prints the
// suggestions the delivery screens would show for them.
func main() {
	cfg, err := config.Load(getEnv("REUSEIT_CONFIG", ""))
	if err != nil {
		log.Fatalln("Unable to load configuration", err)
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		log.Fatalln("Unable to create logger", err)
	}
	if len(cfg.Seed.Places) == 0 {
		logger.Warn("No places configured, every lookup will be empty")
	}

	sess := search.NewSession(context.Background(), search.NewGazetteer(cfg.Seed.Places), search.Options{
		Markers:  cfg.Search.RegionMarkers,
		Debounce: cfg.Search.Debounce,
		Logger:   logger,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for titles := range sess.Results() {
			if len(titles) == 0 {
				fmt.Println("  (no suggestions)")
				continue
			}
			for _, t := range titles {
				fmt.Println("  " + t)
			}
		}
	}()

	fmt.Println("Type part of an address, one query per line (Ctrl-D to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		sess.OnQueryChanged(strings.TrimSpace(scanner.Text()))
	}
	sess.Close()
	<-done
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
