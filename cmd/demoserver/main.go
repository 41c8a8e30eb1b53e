// Command demoserver starts a small bakery site to point the scraper at.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/2002Bishwajeet/ogbanana/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   OG:BANANA Demo Site")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Pages to try with `ogbanana generate --url`:")
	for _, p := range demoserver.GetAllPages() {
		fmt.Printf("  %-10s %s\n", p.Path, p.Description)
	}
	fmt.Println()

	server, err := demoserver.NewDemoServer(cfg)
	if err != nil {
		log.Fatalf("Demo site error: %v", err)
	}
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
