package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	feedSort  string
	feedType  string
	feedLimit int
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Browse the post feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showFeed()
	},
}

func init() {
	feedCmd.Flags().StringVar(&feedSort, "sort", "new", "Sort order: new, top, or discussed")
	feedCmd.Flags().StringVar(&feedType, "type", "", "Filter by post type (confession, question, rant, advice, discussion)")
	feedCmd.Flags().IntVar(&feedLimit, "limit", 20, "Number of posts to show")
}

type feedPost struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	PostType     string `json:"post_type"`
	DisplayName  string `json:"display_name"`
	Score        int    `json:"score"`
	CommentCount int    `json:"comment_count"`
	IsPinned     bool   `json:"is_pinned"`
}

func showFeed() error {
	query := url.Values{}
	query.Set("sort", feedSort)
	query.Set("limit", fmt.Sprintf("%d", feedLimit))
	if feedType != "" {
		query.Set("post_type", feedType)
	}

	req, err := http.NewRequest("GET", apiURL+"/api/v1/posts?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var parsed struct {
		Posts []feedPost `json:"posts"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	for _, post := range parsed.Posts {
		pin := "  "
		if post.IsPinned {
			pin = "📌"
		}
		fmt.Printf("%s [%+d] %-10s %s\n", pin, post.Score, post.PostType, post.Title)
		fmt.Printf("      by %s, %d comments (%s)\n", post.DisplayName, post.CommentCount, post.ID)
	}
	return nil
}
