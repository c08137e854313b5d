package docstore

import "testing"

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: "https://gw.test/api", RootPath: "sites/ops"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestFileCandidates_OrderAndURLs(t *testing.T) {
	c := testClient(t)
	cands := c.fileCandidates("/sites/ops/finance/report.csv")

	want := []Candidate{
		{FormEncodedPath, "https://gw.test/api/files(path='%2Fsites%2Fops%2Ffinance%2Freport.csv')/content"},
		{FormRawPath, "https://gw.test/api/files(path='/sites/ops/finance/report.csv')/content"},
		{FormAliasQuery, "https://gw.test/api/download?path=%2Fsites%2Fops%2Ffinance%2Freport.csv"},
		{FormSourceDownload, "https://gw.test/api/sourcedoc?file=%2Fsites%2Fops%2Ffinance%2Freport.csv&binary=false"},
	}
	if len(cands) != len(want) {
		t.Fatalf("fileCandidates() returned %d candidates, want %d", len(cands), len(want))
	}
	for i := range want {
		if cands[i] != want[i] {
			t.Errorf("candidate %d = %+v, want %+v", i, cands[i], want[i])
		}
	}
}

func TestFileCandidates_QuoteAndSpaceEscaping(t *testing.T) {
	c := testClient(t)
	cands := c.fileCandidates("/sites/ops/Bob's Place.csv")

	// Path-literal forms double embedded quotes; query forms carry the
	// locator as-is, query-escaped.
	want := []Candidate{
		{FormEncodedPath, "https://gw.test/api/files(path='%2Fsites%2Fops%2FBob%27%27s%20Place.csv')/content"},
		{FormRawPath, "https://gw.test/api/files(path='/sites/ops/Bob''s Place.csv')/content"},
		{FormAliasQuery, "https://gw.test/api/download?path=%2Fsites%2Fops%2FBob%27s+Place.csv"},
		{FormSourceDownload, "https://gw.test/api/sourcedoc?file=%2Fsites%2Fops%2FBob%27s+Place.csv&binary=false"},
	}
	for i := range want {
		if cands[i] != want[i] {
			t.Errorf("candidate %d = %+v, want %+v", i, cands[i], want[i])
		}
	}
}

func TestFolderListURL(t *testing.T) {
	c := testClient(t)
	got := c.folderListURL("/sites/ops/finance")
	want := "https://gw.test/api/folders?path=%2Fsites%2Fops%2Ffinance&select=name"
	if got != want {
		t.Errorf("folderListURL() = %q, want %q", got, want)
	}
}
