package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	baseURL   = flag.String("base", "http://localhost:8080", "server base URL")
	wsURL     = flag.String("ws", "ws://localhost:8080/ws", "websocket URL")
	password  = flag.String("password", "password123", "shared access password")
	pairCount = flag.Int("pairs", 50, "number of DM pairs")
	msgCount  = flag.Int("messages", 20, "messages per user")
)

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		Nickname string `json:"nickname"`
	} `json:"user"`
}

func main() {
	flag.Parse()
	log.Printf("starting stress test: %d users, %d messages each", *pairCount*2, *msgCount)

	var wg sync.WaitGroup
	for i := 0; i < *pairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}
	wg.Wait()
	log.Println("load test complete")
}

// runPair logs two users in, opens a push channel for each and has them spam
// a DM conversation at each other over the REST ingress.
func runPair(pairID int) {
	userA := fmt.Sprintf("u_%d_a", pairID)
	userB := fmt.Sprintf("u_%d_b", pairID)

	tokenA := login(userA)
	tokenB := login(userB)
	if tokenA == "" || tokenB == "" {
		return
	}

	var wsWg sync.WaitGroup
	wsWg.Add(2)
	go spamDM(&wsWg, tokenA, userA, userB)
	go spamDM(&wsWg, tokenB, userB, userA)
	wsWg.Wait()
}

func login(nickname string) string {
	body, _ := json.Marshal(map[string]string{"nickname": nickname, "password": *password})
	resp, err := http.Post(*baseURL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("login failed [%s]: %v", nickname, err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("login failed [%s]: status %d", nickname, resp.StatusCode)
		return ""
	}

	var data loginResponse
	json.NewDecoder(resp.Body).Decode(&data)
	return data.Token
}

func spamDM(wg *sync.WaitGroup, token, sender, target string) {
	defer wg.Done()

	// Keep a live channel open so the server fans batches out to us while we
	// write; this is what exercises the coalescer.
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", *wsURL, token), nil)
	if err != nil {
		log.Printf("ws connect failed [%s]: %v", sender, err)
		return
	}
	defer conn.Close()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < *msgCount; i++ {
		body, _ := json.Marshal(map[string]string{
			"type":    "dm",
			"target":  target,
			"content": fmt.Sprintf("loadtest message %d from %s", i, sender),
		})
		req, _ := http.NewRequest(http.MethodPost, *baseURL+"/api/message", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Printf("send failed [%s]: %v", sender, err)
			break
		}
		resp.Body.Close()
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("%s finished sending %d messages", sender, *msgCount)
}
