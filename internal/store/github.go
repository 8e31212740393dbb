package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
)

// Store keeps JSON documents as files in a GitHub repository, one commit per
// save. It is a thin wrapper over the contents API, not a database: every
// call round-trips to GitHub, and two writers racing between the existence
// check and the write will see the second update rejected on a stale SHA.
type Store struct {
	client *github.Client
	owner  string
	repo   string
	log    *slog.Logger
}

// New creates a store writing to the repository named owner/name,
// authenticated with a bearer token.
func New(token, repoFullName string, logger *slog.Logger) (*Store, error) {
	return NewWithClient(github.NewClient(nil).WithAuthToken(token), repoFullName, logger)
}

// NewWithClient wires an existing GitHub client, letting tests point the
// store at a fake API.
func NewWithClient(client *github.Client, repoFullName string, logger *slog.Logger) (*Store, error) {
	owner, repo, ok := strings.Cut(repoFullName, "/")
	if ok {
		owner = strings.TrimSpace(owner)
		repo = strings.TrimSpace(repo)
	}
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("repository must look like owner/name, got %q", repoFullName)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Store{client: client, owner: owner, repo: repo, log: logger}, nil
}

// Load reads the JSON document at path into v. A missing file is not an
// error: Load reports found=false and leaves v untouched so callers can keep
// their empty default.
func (s *Store) Load(ctx context.Context, path string, v any) (bool, error) {
	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, nil)
	if err != nil {
		if isNotFound(resp) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", path, err)
	}
	if file == nil {
		return false, fmt.Errorf("get %s: path is a directory", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", path, err)
	}

	return true, nil
}

// Save serializes v and commits it at path with the given message, creating
// the file when it does not exist yet. On update, the blob SHA observed
// during the existence check rides along so a concurrent writer makes the
// call fail instead of silently clobbering.
func (s *Store) Save(ctx context.Context, path string, v any, message string) error {
	content, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}

	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, nil)
	switch {
	case err != nil && isNotFound(resp):
		if _, _, err := s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		s.log.Info("document created", slog.String("path", path))
	case err != nil:
		return fmt.Errorf("check %s: %w", path, err)
	case file == nil:
		return fmt.Errorf("save %s: path is a directory", path)
	default:
		opts.SHA = file.SHA
		if _, _, err := s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts); err != nil {
			return fmt.Errorf("update %s: %w", path, err)
		}
		s.log.Info("document updated", slog.String("path", path), slog.String("sha", file.GetSHA()))
	}

	return nil
}

// List returns the paths of the files under dir. A missing directory yields
// an empty listing.
func (s *Store) List(ctx context.Context, dir string) ([]string, error) {
	_, entries, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, dir, nil)
	if err != nil {
		if isNotFound(resp) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.GetPath())
	}
	return paths, nil
}

// encodeJSON renders v with two-space indentation and HTML escaping off, so
// non-ASCII text lands in the repository unescaped.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isNotFound(resp *github.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}
