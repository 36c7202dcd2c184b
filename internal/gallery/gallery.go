// Package gallery lists reward pictures kept in a folder of a GitHub
// repository and picks which one a player is uncovering.
package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hperssn/divdrill/internal/domain"
)

const DefaultBaseURL = "https://api.github.com"

var ErrUnexpectedListing = errors.New("unexpected contents listing")

var imageName = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif)$`)

// Image is one entry of the GitHub contents API.
type Image struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// URL returns the download URL versioned by blob sha so browsers refetch
// replaced pictures.
func (i Image) URL() string {
	if i.SHA == "" {
		return i.DownloadURL
	}
	return i.DownloadURL + "?v=" + i.SHA
}

type Client struct {
	BaseURL string
	Repo    string
	Folder  string
	HTTP    *http.Client
}

func NewClient(baseURL, repo, folder string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Repo:    repo,
		Folder:  strings.Trim(folder, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// List returns the picture files in the configured folder.
func (c *Client) List(ctx context.Context) ([]Image, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s", c.BaseURL, c.Repo, c.Folder)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.Repo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrUnexpectedListing, url, resp.Status)
	}

	var entries []Image
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		// a file path returns an object, not an array
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedListing, err)
	}

	return FilterImages(entries), nil
}

// FilterImages keeps files with a picture extension.
func FilterImages(entries []Image) []Image {
	var out []Image
	for _, e := range entries {
		if e.Type == "file" && imageName.MatchString(e.Name) {
			out = append(out, e)
		}
	}
	return out
}

// Picker chooses pictures from a loaded list. The zero value holds no
// pictures and picks nothing.
type Picker struct {
	mu     sync.RWMutex
	images []Image
}

func NewPicker(images []Image) *Picker {
	p := &Picker{}
	p.Set(images)
	return p
}

func (p *Picker) Set(images []Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.images = append([]Image(nil), images...)
}

func (p *Picker) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.images)
}

func (p *Picker) Random(r domain.RandSource) (Image, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.images) == 0 {
		return Image{}, false
	}
	return p.images[r.Intn(len(p.images))], true
}

// Next picks a picture other than current whenever more than one exists.
func (p *Picker) Next(r domain.RandSource, current string) (Image, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch len(p.images) {
	case 0:
		return Image{}, false
	case 1:
		return p.images[0], true
	}

	candidates := make([]Image, 0, len(p.images))
	for _, img := range p.images {
		if img.Name != current {
			candidates = append(candidates, img)
		}
	}
	if len(candidates) == 0 {
		candidates = p.images
	}
	return candidates[r.Intn(len(candidates))], true
}
