package social

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newLateTestClient(t *testing.T, handler http.Handler) *LateClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewLateClient("test-api-key")
	if err != nil {
		t.Fatal(err)
	}
	client.BaseURL = server.URL
	return client
}

func TestNewLateClientRequiresKey(t *testing.T) {
	if _, err := NewLateClient(""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestAccountsAcceptsBothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"id":"a1","provider":"twitter"}]`},
		{"wrapped data", `{"data":[{"id":"a1","provider":"twitter"}]}`},
		{"wrapped accounts", `{"accounts":[{"id":"a1","provider":"twitter"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newLateTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer test-api-key" {
					t.Errorf("missing bearer auth: %q", r.Header.Get("Authorization"))
				}
				fmt.Fprint(w, tt.body)
			}))
			accounts, err := client.Accounts()
			if err != nil {
				t.Fatalf("Accounts: %v", err)
			}
			if len(accounts) != 1 || accounts[0].ID != "a1" {
				t.Errorf("accounts = %+v", accounts)
			}
		})
	}
}

func TestPublishHappyPath(t *testing.T) {
	t.Cleanup(DeleteDraft)
	if err := SaveDraft(&Draft{
		Content:   "Big update!",
		Platforms: []string{"twitter"},
		Hashtags:  []string{"gamedev"},
	}); err != nil {
		t.Fatal(err)
	}

	var gotPost PostRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"acc-tw","provider":"Twitter"}]`)
	})
	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPost)
		fmt.Fprint(w, `{"id":"post1"}`)
	})

	client := newLateTestClient(t, mux)
	summary, err := Publish(client, "", "")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if !gotPost.PublishNow {
		t.Error("immediate publish should set publishNow")
	}
	if gotPost.Content != "Big update!\n\n#gamedev" {
		t.Errorf("content = %q", gotPost.Content)
	}
	if len(gotPost.AccountIDs) != 1 || gotPost.AccountIDs[0] != "acc-tw" {
		t.Errorf("accountIds = %v (provider matching must be case-insensitive)", gotPost.AccountIDs)
	}
	if !strings.Contains(summary, "Post published!") || !strings.Contains(summary, "post1") {
		t.Errorf("summary = %q", summary)
	}

	// Success consumes the draft.
	if _, err := LoadDraft(); !errors.Is(err, ErrNoDraft) {
		t.Error("draft not consumed after successful publish")
	}
}

func TestPublishScheduled(t *testing.T) {
	t.Cleanup(DeleteDraft)
	if err := SaveDraft(&Draft{Content: "Later", Platforms: []string{"twitter"}}); err != nil {
		t.Fatal(err)
	}

	var gotPost PostRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"acc-tw","provider":"twitter"}]`)
	})
	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPost)
		fmt.Fprint(w, `{"id":"post2"}`)
	})

	client := newLateTestClient(t, mux)
	if _, err := Publish(client, "2026-09-01T10:00:00", ""); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if gotPost.PublishNow {
		t.Error("scheduled publish must not set publishNow")
	}
	if gotPost.ScheduledFor != "2026-09-01T10:00:00" || gotPost.Timezone != "UTC" {
		t.Errorf("schedule = (%q, %q), timezone should default to UTC", gotPost.ScheduledFor, gotPost.Timezone)
	}
}

func TestPublishWithoutDraft(t *testing.T) {
	DeleteDraft()
	client := newLateTestClient(t, http.NewServeMux())
	if _, err := Publish(client, "", ""); !errors.Is(err, ErrNoDraft) {
		t.Errorf("err = %v, want ErrNoDraft", err)
	}
}

func TestPublishMissingAccountKeepsDraft(t *testing.T) {
	t.Cleanup(DeleteDraft)
	if err := SaveDraft(&Draft{Content: "x", Platforms: []string{"twitter", "mastodon"}}); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"acc-tw","provider":"twitter"}]`)
	})

	client := newLateTestClient(t, mux)
	_, err := Publish(client, "", "")
	if err == nil || !strings.Contains(err.Error(), "no Late accounts found for: mastodon") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "Available accounts: twitter") {
		t.Errorf("error should list available accounts: %v", err)
	}

	// Failure leaves the draft so the user can retry.
	if _, err := LoadDraft(); err != nil {
		t.Error("draft lost after failed publish")
	}
}

func TestPublishAPIErrorKeepsDraft(t *testing.T) {
	t.Cleanup(DeleteDraft)
	if err := SaveDraft(&Draft{Content: "x", Platforms: []string{"twitter"}}); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"acc-tw","provider":"twitter"}]`)
	})
	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	client := newLateTestClient(t, mux)
	_, err := Publish(client, "", "")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v", err)
	}
	if _, err := LoadDraft(); err != nil {
		t.Error("draft lost after upstream failure")
	}
}
