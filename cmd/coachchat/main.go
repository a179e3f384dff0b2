// coachchat is a terminal client for the messaging relay. It signs in as a
// participant, shows the conversation roster, and runs a send/receive loop
// against the selected conversation.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"coachlink/messaging/internal/client"
	"coachlink/messaging/internal/models"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: coachchat <relay-base-url> <participant-id>")
		os.Exit(1)
	}
	baseURL := strings.TrimSuffix(os.Args[1], "/")
	participantID := os.Args[2]

	token, err := createSession(baseURL, participantID)
	if err != nil {
		log.Fatalf("Sign-in failed: %v", err)
	}

	c, err := client.New(client.Options{BaseURL: baseURL, Token: token})
	if err != nil {
		log.Fatalf("Client setup failed: %v", err)
	}

	c.Router.OnMessage = printMessage
	c.Directory.OnChange = func() {
		cur, ok := c.Directory.Current()
		if !ok {
			return
		}
		fmt.Printf("--- %s ---\n", cur.Name)
		for _, m := range c.Log.Snapshot() {
			printMessage(m)
		}
	}
	c.Directory.OnError = func(err error) {
		fmt.Printf("! history unavailable: %v\n", err)
	}

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		log.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	fmt.Printf("Connected as %s (%s). Type /help for commands.\n",
		c.Session.DisplayName, c.Session.Role)
	printRoster(c)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/help":
			fmt.Println("/who             list conversations")
			fmt.Println("/select <n>      switch conversation")
			fmt.Println("/attach <path>   stage an image or video")
			fmt.Println("/quit            exit")
			fmt.Println("anything else    send as a message")
		case line == "/who":
			printRoster(c)
		case line == "/quit":
			return
		case strings.HasPrefix(line, "/select "):
			selectConversation(ctx, c, strings.TrimPrefix(line, "/select "))
		case strings.HasPrefix(line, "/attach "):
			attachFile(c, strings.TrimPrefix(line, "/attach "))
		default:
			send(ctx, c, line)
		}
	}
}

// createSession exchanges a participant id for a bearer token.
func createSession(baseURL, participantID string) (string, error) {
	body, _ := json.Marshal(map[string]string{"participantId": participantID})
	resp, err := http.Post(baseURL+"/session", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("relay returned %s", resp.Status)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func printRoster(c *client.Client) {
	counterparts := c.Directory.Counterparts()
	if len(counterparts) == 0 {
		fmt.Println("No conversations yet.")
		return
	}
	cur, _ := c.Directory.Current()
	for i, p := range counterparts {
		marker := " "
		if p.ID == cur.ID {
			marker = "*"
		}
		fmt.Printf("%s %d. %s (%s)\n", marker, i+1, p.Name, p.Role)
	}
}

func selectConversation(ctx context.Context, c *client.Client, arg string) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	counterparts := c.Directory.Counterparts()
	if err != nil || n < 1 || n > len(counterparts) {
		fmt.Println("Usage: /select <n>  (see /who)")
		return
	}
	c.Directory.Select(ctx, counterparts[n-1])
}

func attachFile(c *client.Client, path string) {
	path = strings.TrimSpace(path)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("! cannot read %s: %v\n", path, err)
		return
	}
	err = c.Composer.AttachFile(models.AttachmentDraft{
		FileName: filepath.Base(path),
		Data:     data,
	})
	if err != nil {
		fmt.Printf("! %v\n", err)
		return
	}
	fmt.Printf("Staged %s. It goes out with your next message.\n", filepath.Base(path))
}

func send(ctx context.Context, c *client.Client, text string) {
	if _, err := c.Composer.Compose(ctx, text); err != nil {
		fmt.Printf("! %v\n", err)
	}
}

func printMessage(m models.Message) {
	tag := "<"
	if m.Origin != models.OriginReceived {
		tag = ">"
	}
	line := m.Content
	if m.HasAttachment() {
		line = strings.TrimSpace(line + " [" + m.FileURL + "]")
	}
	fmt.Printf("%s %s %s\n", m.Timestamp.Local().Format("15:04"), tag, line)
}
