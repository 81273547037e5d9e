package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var postCmd = &cobra.Command{
	Use:   "post <post-id>",
	Short: "Show a post and its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showPost(args[0])
	},
}

type postDetail struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	PostType     string `json:"post_type"`
	DisplayName  string `json:"display_name"`
	Score        int    `json:"score"`
	CommentCount int    `json:"comment_count"`
	IsPinned     bool   `json:"is_pinned"`
	CreatedAt    string `json:"created_at"`
}

type postComment struct {
	Content      string        `json:"content"`
	DisplayName  string        `json:"display_name"`
	Score        int           `json:"score"`
	IsBestAnswer bool          `json:"is_best_answer"`
	Replies      []postComment `json:"replies"`
}

func showPost(id string) error {
	body, err := apiGet("/api/v1/posts/" + id)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
	} else {
		var parsed struct {
			Post postDetail `json:"post"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		post := parsed.Post
		pin := ""
		if post.IsPinned {
			pin = " 📌"
		}
		fmt.Printf("[%+d] %s%s\n", post.Score, post.Title, pin)
		fmt.Printf("%s by %s at %s\n\n", post.PostType, post.DisplayName, post.CreatedAt)
		fmt.Println(post.Content)
		fmt.Printf("\n%d comments\n", post.CommentCount)
	}

	body, err = apiGet("/api/v1/posts/" + id + "/comments")
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var parsed struct {
		Comments []postComment `json:"comments"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	for _, comment := range parsed.Comments {
		printComment(comment, "  ")
		for _, reply := range comment.Replies {
			printComment(reply, "      ")
		}
	}
	return nil
}

func printComment(comment postComment, indent string) {
	best := ""
	if comment.IsBestAnswer {
		best = " ✓ best answer"
	}
	fmt.Printf("%s[%+d] %s%s\n", indent, comment.Score, comment.DisplayName, best)
	fmt.Printf("%s%s\n", indent, comment.Content)
}

func apiGet(path string) ([]byte, error) {
	req, err := http.NewRequest("GET", apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
