// Package main provides a load testing tool for the chat WebSocket endpoint.
// It logs in with a demo account, opens many concurrent sockets, subscribes
// each to a match and counts delivered events.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the probe results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	Subscribed           int64
	EventsReceived       int64
	Errors               int64
}

var metrics Metrics

func main() {
	host := flag.String("host", "localhost:8480", "API server host")
	email := flag.String("email", "admin@mix.local", "Test user email")
	password := flag.String("password", "Demo!Password123", "Test user password")
	matchID := flag.Uint("match", 1, "Match ID to subscribe to")
	clients := flag.Int("clients", 50, "Number of concurrent clients")
	duration := flag.Duration("duration", 30*time.Second, "Probe duration")
	flag.Parse()

	log.Printf("🚀 Starting Chat WebSocket Probe")
	log.Printf("Target: %s", *host)
	log.Printf("Clients: %d", *clients)
	log.Printf("Duration: %v", *duration)

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("❌ Login failed: %v", err)
	}
	log.Printf("✅ Logged in successfully")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, *matchID, stopChan, &wg)
		// Stagger connections so the limiter does not greet the probe with 429s
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("⏱️  Probe duration reached")
	case <-interrupt:
		log.Println("🛑 Interrupted by user")
	}

	close(stopChan)
	log.Println("Waiting for clients to disconnect...")
	wg.Wait()

	printMetrics()
}

func login(host, email, password string) (string, error) {
	loginURL := fmt.Sprintf("http://%s/api/auth/login", host)
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, _ := json.Marshal(payload)

	resp, err := http.Post(loginURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Token, nil
}

func runClient(host, token string, matchID uint, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws/chat", RawQuery: "token=" + token}

	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	subscribe := map[string]interface{}{
		"type":     "subscribe",
		"match_id": matchID,
	}
	frame, _ := json.Marshal(subscribe)
	if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	atomic.AddInt64(&metrics.Subscribed, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, _, err := c.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&metrics.EventsReceived, 1)
		}
	}()

	select {
	case <-stopChan:
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-done:
	}
}

func printMetrics() {
	log.Println("\n📊 Probe Results")
	log.Println("================")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Subscriptions Sent: %d", atomic.LoadInt64(&metrics.Subscribed))
	log.Printf("Events Received: %d", atomic.LoadInt64(&metrics.EventsReceived))
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
