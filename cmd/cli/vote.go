package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/unsaid-app/backend/internal/models"
	"github.com/unsaid-app/backend/internal/voting"
)

var voteDown bool

var voteCmd = &cobra.Command{
	Use:   "vote <post-id>",
	Short: "Upvote or downvote a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		direction := models.VoteUp
		if voteDown {
			direction = models.VoteDown
		}
		return castVote(args[0], direction)
	},
}

func init() {
	voteCmd.Flags().BoolVar(&voteDown, "down", false, "Cast a downvote instead of an upvote")
}

// httpStore applies votes over the REST API. The endpoint uses toggle
// semantics, so retraction re-sends the direction currently held.
type httpStore struct {
	lastVote models.VoteType
}

func (s *httpStore) ApplyVote(ctx context.Context, kind voting.TargetKind, targetID string, direction models.VoteType) error {
	send := direction
	if direction == 0 {
		send = s.lastVote
	}

	payload, err := json.Marshal(map[string]int{"direction": int(send)})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	path := fmt.Sprintf("%s/api/v1/%ss/%s/vote", apiURL, kind, targetID)
	req, err := http.NewRequestWithContext(ctx, "POST", path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	s.lastVote = direction
	return nil
}

// fetchVoteState loads the post's counters and the caller's current vote
func fetchVoteState(postID string) (voting.VoteState, error) {
	state := voting.VoteState{TargetKind: voting.TargetPost, TargetID: postID}

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/api/v1/posts/%s", apiURL, postID), nil)
	if err != nil {
		return state, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return state, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return state, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return state, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Post struct {
			Upvotes   int `json:"upvotes"`
			Downvotes int `json:"downvotes"`
			UserVote  int `json:"user_vote"`
		} `json:"post"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return state, fmt.Errorf("failed to decode response: %w", err)
	}

	state.Upvotes = parsed.Post.Upvotes
	state.Downvotes = parsed.Post.Downvotes
	state.CurrentVote = models.VoteType(parsed.Post.UserVote)
	return state, nil
}

func castVote(postID string, direction models.VoteType) error {
	initial, err := fetchVoteState(postID)
	if err != nil {
		return err
	}

	store := &httpStore{lastVote: initial.CurrentVote}

	var remoteErr error
	engine := voting.NewEngine(store, &voting.Session{UserID: "cli"}, initial,
		voting.WithErrorHandler(func(err error) { remoteErr = err }),
	)
	defer engine.Close()

	if err := engine.CastVote(context.Background(), direction); err != nil {
		return err
	}

	// Show the optimistic result immediately, then wait for the server
	state := engine.State()
	printVoteState("optimistic", state)

	engine.Wait()
	if remoteErr != nil {
		printVoteState("rolled back", engine.State())
		return remoteErr
	}

	printVoteState("confirmed", engine.State())
	return nil
}

func printVoteState(label string, state voting.VoteState) {
	if output == "json" {
		raw, _ := json.Marshal(map[string]interface{}{
			"label":        label,
			"current_vote": int(state.CurrentVote),
			"upvotes":      state.Upvotes,
			"downvotes":    state.Downvotes,
			"score":        state.Score(),
		})
		fmt.Println(string(raw))
		return
	}
	fmt.Printf("%-11s score %+d (%d up / %d down), your vote: %+d\n",
		label, state.Score(), state.Upvotes, state.Downvotes, int(state.CurrentVote))
}
