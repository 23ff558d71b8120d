// Package ghrelease lists GitHub releases and installs their assets. Asset
// presence is validated up front so a partially published release fails
// before any download starts.
package ghrelease

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"time"

	"github.com/keyless-zk/zktool/download"
	"github.com/keyless-zk/zktool/log"
)

const apiBaseURL = "https://api.github.com"

// Release is the subset of the GitHub release object the tool needs.
type Release struct {
	TagName   string    `json:"tag_name"`
	CreatedAt time.Time `json:"created_at"`
	Assets    []Asset   `json:"assets"`
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	URL                string `json:"url"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// ReleaseNotFoundError is returned when no release carries the requested
// tag.
type ReleaseNotFoundError struct {
	Release string
}

func (e *ReleaseNotFoundError) Error() string {
	return fmt.Sprintf("release %q not found", e.Release)
}

// MissingAssetError is returned when a release lacks a required asset.
type MissingAssetError struct {
	Release string
	Asset   string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("release %q is missing required asset %q", e.Release, e.Asset)
}

// Client talks to the releases API of a single repository.
type Client struct {
	baseURL    string
	owner      string
	repo       string
	authToken  string
	httpClient *http.Client
}

// NewClient builds a client for the given repository. The token is
// optional; without it downloads go through the public
// browser_download_url.
func NewClient(owner, repo, authToken string) *Client {
	return &Client{
		baseURL:    apiBaseURL,
		owner:      owner,
		repo:       repo,
		authToken:  authToken,
		httpClient: http.DefaultClient,
	}
}

// Releases fetches all releases of the repository, sorted by creation time
// ascending.
func (c *Client) Releases(ctx context.Context) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases", c.baseURL, c.owner, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot build releases request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "token "+c.authToken)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot list releases: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing releases of %s/%s: http status %d",
			c.owner, c.repo, res.StatusCode)
	}
	var releases []Release
	if err := json.NewDecoder(res.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("cannot decode releases: %w", err)
	}
	sort.Slice(releases, func(i, j int) bool {
		return releases[i].CreatedAt.Before(releases[j].CreatedAt)
	})
	return releases, nil
}

// ReleaseByTag returns the release with the given tag name.
func (c *Client) ReleaseByTag(ctx context.Context, tag string) (*Release, error) {
	releases, err := c.Releases(ctx)
	if err != nil {
		return nil, err
	}
	for i := range releases {
		if releases[i].TagName == tag {
			return &releases[i], nil
		}
	}
	return nil, &ReleaseNotFoundError{Release: tag}
}

// assets resolves assetNames within the release, failing on the first
// missing one.
func (r *Release) assets(assetNames []string) ([]Asset, error) {
	result := make([]Asset, 0, len(assetNames))
	for _, name := range assetNames {
		found := false
		for _, asset := range r.Assets {
			if asset.Name == name {
				result = append(result, asset)
				found = true
				break
			}
		}
		if !found {
			return nil, &MissingAssetError{Release: r.TagName, Asset: name}
		}
	}
	return result, nil
}

// DownloadAssets downloads the named assets of the release tagged tag into
// installDir, keeping the asset file names. All assets are validated to
// exist before the first byte is fetched.
func (c *Client) DownloadAssets(ctx context.Context, tag, installDir string, assetNames []string) error {
	release, err := c.ReleaseByTag(ctx, tag)
	if err != nil {
		return err
	}
	assets, err := release.assets(assetNames)
	if err != nil {
		return err
	}
	for _, asset := range assets {
		dest := filepath.Join(installDir, asset.Name)
		log.Infow("downloading release asset", "release", tag, "asset", asset.Name)
		opts := &download.Options{Client: c.httpClient}
		assetURL := asset.BrowserDownloadURL
		if c.authToken != "" {
			// Private repos serve assets only through the API URL.
			assetURL = asset.URL
			opts.Header = http.Header{
				"Authorization": {"token " + c.authToken},
				"Accept":        {"application/octet-stream"},
			}
		}
		if err := download.ToFile(ctx, assetURL, dest, opts); err != nil {
			return fmt.Errorf("downloading asset %s of release %s: %w", asset.Name, tag, err)
		}
	}
	return nil
}
