package docstore

import (
	"fmt"
	"net/url"
	"strings"
)

// Candidate request form names, in the priority order they are tried.
// The encoded-path and raw-path forms address the gateway's file resource
// directly (they differ only in locator escaping, and gateway versions
// disagree about which one they accept); the alias-query form passes the
// locator as a query parameter; the source-download form uses the generic
// endpoint that resolves a source path server-side.
const (
	FormEncodedPath    = "encoded-path"
	FormRawPath        = "raw-path"
	FormAliasQuery     = "alias-query"
	FormSourceDownload = "source-download"
	FormFolderList     = "folder-list"
)

// Candidate is one concrete request form for a locator.
type Candidate struct {
	Form string
	URL  string
}

// fileCandidates builds the candidate requests for one file locator.
// Order is fixed; changing it changes which gateway endpoint wins and is a
// behavior change, not a cleanup.
func (c *Client) fileCandidates(locator string) []Candidate {
	quoted := strings.ReplaceAll(locator, "'", "''")
	return []Candidate{
		{FormEncodedPath, fmt.Sprintf("%s/files(path='%s')/content", c.baseURL, url.PathEscape(quoted))},
		{FormRawPath, fmt.Sprintf("%s/files(path='%s')/content", c.baseURL, quoted)},
		{FormAliasQuery, fmt.Sprintf("%s/download?path=%s", c.baseURL, url.QueryEscape(locator))},
		{FormSourceDownload, fmt.Sprintf("%s/sourcedoc?file=%s&binary=false", c.baseURL, url.QueryEscape(locator))},
	}
}

// folderListURL builds the single folder-enumeration request.
func (c *Client) folderListURL(locator string) string {
	return fmt.Sprintf("%s/folders?path=%s&select=name", c.baseURL, url.QueryEscape(locator))
}
