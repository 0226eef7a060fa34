// Command mockpos runs the in-memory POS backend for local development.
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gapjyk-pos/waiter/internal/mockpos"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	srv := mockpos.NewServer(mockpos.SeedStore(), mockpos.NewFeed())

	log.Printf("Starting mock POS backend on :%s", port)
	if err := http.ListenAndServe(":"+port, srv.Router()); err != nil {
		log.Fatal(err)
	}
}
