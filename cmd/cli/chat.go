package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var chatConversationID string

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the study assistant and stream the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		return streamChat(strings.Join(args, " "))
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatConversationID, "conversation", "", "Continue an existing conversation")
}

func streamChat(message string) error {
	payload, err := json.Marshal(map[string]string{
		"conversation_id": chatConversationID,
		"content":         message,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequest("POST", apiURL+"/api/v1/chat/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var frame struct {
			Content        string `json:"content"`
			Error          string `json:"error"`
			ConversationID string `json:"conversation_id"`
		}
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			continue
		}

		switch {
		case frame.Error != "":
			fmt.Println()
			return fmt.Errorf("assistant error: %s", frame.Error)
		case frame.Content != "":
			fmt.Print(frame.Content)
		case frame.ConversationID != "":
			fmt.Printf("\n\n(conversation %s)\n", frame.ConversationID)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream interrupted: %w", err)
	}

	return nil
}
