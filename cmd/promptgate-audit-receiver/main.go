// promptgate-audit-receiver is a dev tool: it listens for audit webhook
// events and prints them, so a local gateway's webhook sink has somewhere to
// point.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

func main() {
	addr := flag.String("addr", ":8099", "listen address for audit receiver")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/audit", handleAudit)
	mux.HandleFunc("/", handleAudit)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("audit receiver listening on %s (POST JSON to /audit)...", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("receiver error: %v", err)
	}
}

func handleAudit(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()

	log.Printf("received audit event: path=%s content-type=%s len=%d\n%s", r.URL.Path, r.Header.Get("Content-Type"), len(body), string(body))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, `{"status":"ok"}`)
}
