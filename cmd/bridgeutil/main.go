package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"command-bot/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSMessage mirrors the frames exchanged on /ws/bridge
type WSMessage struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

func main() {
	hashPtr := flag.String("hash-secret", "", "Print the bcrypt hash of a bridge secret for BRIDGE_SECRET_HASH")
	chatPtr := flag.Bool("chat", false, "Connect as a bridge and send stdin lines as messages")
	baseURLPtr := flag.String("url", "http://localhost:8081", "Bot base URL")
	clientIDPtr := flag.String("client-id", "bridge", "Bridge client id")
	secretPtr := flag.String("secret", os.Getenv("BRIDGE_SECRET"), "Bridge secret")
	chatIDPtr := flag.String("chat-id", "local@g.us", "Conversation id used for -chat")
	helpPtr := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *helpPtr || (*hashPtr == "" && !*chatPtr) {
		fmt.Println("Bridge Tools Usage:")
		fmt.Println("  -hash-secret S   Print the bcrypt hash of S")
		fmt.Println("  -chat            Send stdin lines to the bot over the bridge socket")
		fmt.Println("  -help            Show this help message")
		os.Exit(0)
	}

	if *hashPtr != "" {
		hash, err := models.HashSecret(*hashPtr)
		if err != nil {
			log.Fatalf("Error hashing secret: %v", err)
		}
		fmt.Println(hash)
	}

	if *chatPtr {
		token, err := requestToken(*baseURLPtr, *clientIDPtr, *secretPtr)
		if err != nil {
			log.Fatalf("Error requesting token: %v", err)
		}
		runChat(*baseURLPtr, token, *chatIDPtr)
	}
}

func requestToken(baseURL, clientID, secret string) (string, error) {
	body, err := json.Marshal(models.TokenRequest{ClientID: clientID, ClientSecret: secret})
	if err != nil {
		return "", err
	}

	resp, err := http.Post(baseURL+"/api/v1/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("error response: %s, status: %d", string(bodyBytes), resp.StatusCode)
	}

	var result models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	return result.AccessToken, nil
}

func socketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws/bridge"
	return u.String(), nil
}

func runChat(baseURL, token, chatID string) {
	wsURL, err := socketURL(baseURL)
	if err != nil {
		log.Fatalf("Invalid URL: %v", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		log.Fatalf("Error connecting to WebSocket: %v", err)
	}
	defer conn.Close()

	log.Println("Connected to WebSocket")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				log.Printf("WebSocket read error: %v", err)
				return
			}
			switch msg.Type {
			case "reply":
				var reply struct {
					ChatID string `json:"chat_id"`
					Text   string `json:"text"`
				}
				if err := json.Unmarshal(msg.Content, &reply); err != nil {
					log.Printf("Error unmarshaling reply: %v", err)
					continue
				}
				fmt.Printf("[%s] %s\n", reply.ChatID, reply.Text)
			case "error":
				log.Printf("Bot error: %s", string(msg.Content))
			}
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	log.Println("Type messages, Ctrl+C to exit...")
	for {
		select {
		case <-done:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			event, _ := json.Marshal(map[string]any{
				"type":       "message",
				"chat_id":    chatID,
				"message_id": uuid.NewString(),
				"sender":     "cli@s.whatsapp.net",
				"text":       line,
				"timestamp":  time.Now().Unix(),
			})
			if err := conn.WriteJSON(WSMessage{Type: "event", Content: event}); err != nil {
				log.Printf("Error writing event: %v", err)
				return
			}
		case <-interrupt:
			log.Println("Interrupt received, shutting down...")

			err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Printf("Error during closing websocket: %v", err)
			}

			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}
