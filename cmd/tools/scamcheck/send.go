package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type sendOptions struct {
	baseURL   string
	apiKey    string
	sessionID string
	sender    string
	channel   string
	timeout   time.Duration
}

type sendMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type sendRequest struct {
	SessionID           string            `json:"sessionId"`
	Message             sendMessage       `json:"message"`
	ConversationHistory []sendMessage     `json:"conversationHistory"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

type sendResponse struct {
	Status             string `json:"status"`
	Reply              string `json:"reply"`
	ConversationStatus string `json:"conversationStatus"`
	ScamDetected       bool   `json:"scamDetected"`
	Turn               int    `json:"turn"`
	EngagementMetrics  struct {
		TotalMessagesExchanged int `json:"totalMessagesExchanged"`
	} `json:"engagementMetrics"`
	Intelligence []struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	} `json:"intelligence"`
	Error string `json:"error"`
}

func newSendCmd() *cobra.Command {
	opts := sendOptions{}
	cmd := &cobra.Command{
		Use:   "send <message> [message...]",
		Short: "Play one scammer message per argument against a running honeypot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.sessionID == "" {
				opts.sessionID = "scamcheck-" + uuid.NewString()[:8]
			}
			client := &http.Client{Timeout: opts.timeout}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session: %s\n", opts.sessionID)

			var history []sendMessage
			for i, text := range args {
				msg := sendMessage{Sender: opts.sender, Text: text, Timestamp: time.Now().UnixMilli()}
				resp, err := postMessage(client, opts, sendRequest{
					SessionID:           opts.sessionID,
					Message:             msg,
					ConversationHistory: history,
					Metadata:            map[string]string{"channel": opts.channel},
				})
				if err != nil {
					return fmt.Errorf("turn %d: %w", i+1, err)
				}

				fmt.Fprintf(out, "\nturn %d [%s] scam=%t messages=%d\n", resp.Turn, resp.ConversationStatus,
					resp.ScamDetected, resp.EngagementMetrics.TotalMessagesExchanged)
				fmt.Fprintf(out, "  > %s\n", text)
				if resp.Reply != "" {
					fmt.Fprintf(out, "  < %s\n", resp.Reply)
				}
				for _, f := range resp.Intelligence {
					fmt.Fprintf(out, "  * %s %s\n", f.Kind, f.Value)
				}
				if resp.Status == "session_ended" {
					fmt.Fprintln(out, "session ended")
					return nil
				}

				history = append(history, msg)
				if resp.Reply != "" {
					history = append(history, sendMessage{Sender: "user", Text: resp.Reply, Timestamp: time.Now().UnixMilli()})
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "url", envOr("HONEYPOT_URL", "http://localhost:8080"), "honeypot base URL")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", os.Getenv("HONEYPOT_API_KEY"), "value for the x-api-key header")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "session id (random when empty)")
	cmd.Flags().StringVar(&opts.sender, "sender", "scammer", "sender label for each message")
	cmd.Flags().StringVar(&opts.channel, "channel", "SMS", "metadata channel")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request timeout")
	return cmd
}

func postMessage(client *http.Client, opts sendOptions, payload sendRequest) (sendResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return sendResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(opts.baseURL, "/")+"/api/honeypot", bytes.NewReader(body))
	if err != nil {
		return sendResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.apiKey != "" {
		req.Header.Set("x-api-key", opts.apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return sendResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return sendResponse{}, fmt.Errorf("read response: %w", err)
	}
	var out sendResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return sendResponse{}, fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("honeypot returned %d: %s", resp.StatusCode, out.Error)
	}
	return out, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
