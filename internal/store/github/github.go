// Package github persists the document as a file in a GitHub repository
// through the contents API. Each save is a commit; the file's blob SHA from
// the preceding read guards against clobbering a concurrent writer.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"waterworks/internal/core"
	"waterworks/internal/store"
)

const commitMessage = "Update data via web app"

type Store struct {
	baseURL  string
	repo     string
	filePath string
	token    string
	client   *http.Client
}

type Options struct {
	// BaseURL overrides the GitHub API root. Tests point it at a local server.
	BaseURL string
	Repo    string
	Path    string
	Token   string
}

func New(opts Options) *Store {
	base := opts.BaseURL
	if base == "" {
		base = "https://api.github.com"
	}
	return &Store{
		baseURL:  base,
		repo:     opts.Repo,
		filePath: opts.Path,
		token:    opts.Token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

func (s *Store) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", s.baseURL, s.repo, s.filePath)
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}

// fetch reads the current file and returns its decoded body and blob SHA.
// A 404 means the file has never been committed.
func (s *Store) fetch(ctx context.Context) (body []byte, sha string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.contentsURL(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("read from github: %w", err)
	}
	s.setHeaders(req)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("read from github: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, "", nil
	}
	if res.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("read from github: unexpected status %d", res.StatusCode)
	}

	var contents contentsResponse
	if err := json.NewDecoder(res.Body).Decode(&contents); err != nil {
		return nil, "", fmt.Errorf("read from github: %w", err)
	}
	// the API wraps base64 at 60 columns; the decoder needs it unwrapped
	raw := bytes.ReplaceAll([]byte(contents.Content), []byte("\n"), nil)
	decoded, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, "", fmt.Errorf("read from github: %w", err)
	}
	return decoded, contents.SHA, nil
}

func (s *Store) Load(ctx context.Context) (*core.AppData, error) {
	body, _, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if body == nil {
		slog.InfoContext(ctx, "Document not found in repository, starting with empty document",
			"repo", s.repo, "path", s.filePath)
		return store.Empty(), nil
	}
	data, err := store.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("read from github: %w", err)
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, data *core.AppData) error {
	body, err := store.Encode(data)
	if err != nil {
		return fmt.Errorf("write to github: %w", err)
	}

	// the contents API requires the current blob SHA to update a file
	_, sha, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("write to github: %w", err)
	}

	payload := map[string]string{
		"message": commitMessage,
		"content": base64.StdEncoding.EncodeToString(body),
	}
	if sha != "" {
		payload["sha"] = sha
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("write to github: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(), bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("write to github: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("write to github: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return fmt.Errorf("write to github: unexpected status %d", res.StatusCode)
	}

	slog.DebugContext(ctx, "Document committed", "repo", s.repo, "path", s.filePath, "bytes", len(body))
	return nil
}
