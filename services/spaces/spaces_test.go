package spaces

import "testing"

func newTestClient(t *testing.T, cdnURL string) *Client {
	t.Helper()

	client, err := NewClient(Config{
		AccessKey: "test-access",
		SecretKey: "test-secret",
		Bucket:    "examvault",
		Region:    "ams3",
		Endpoint:  "ams3.digitaloceanspaces.com",
		CDNURL:    cdnURL,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestKeyFromURLRoundTrip(t *testing.T) {
	client := newTestClient(t, "")

	key := PaperKey(42, "paper")
	if key != "papers/42/paper.pdf" {
		t.Errorf("PaperKey = %q", key)
	}

	url := client.FileURL(key)
	got, ok := client.KeyFromURL(url)
	if !ok || got != key {
		t.Errorf("KeyFromURL(%q) = (%q, %v), want (%q, true)", url, got, ok, key)
	}
}

func TestKeyFromURLWithCDN(t *testing.T) {
	client := newTestClient(t, "https://cdn.examvault.app")

	url := client.FileURL(PaperKey(7, "mark-scheme"))
	got, ok := client.KeyFromURL(url)
	if !ok || got != "papers/7/mark-scheme.pdf" {
		t.Errorf("KeyFromURL(%q) = (%q, %v)", url, got, ok)
	}

	// The non-CDN bucket URL still maps
	got, ok = client.KeyFromURL("https://examvault.ams3.digitaloceanspaces.com/papers/7/paper.pdf")
	if !ok || got != "papers/7/paper.pdf" {
		t.Errorf("bucket URL mapping = (%q, %v)", got, ok)
	}
}

func TestKeyFromURLRejectsForeignURLs(t *testing.T) {
	client := newTestClient(t, "")

	for _, url := range []string{
		"https://www.aqa.org.uk/papers/maths-2023.pdf",
		"https://other-bucket.ams3.digitaloceanspaces.com/papers/1/paper.pdf",
	} {
		if key, ok := client.KeyFromURL(url); ok {
			t.Errorf("KeyFromURL(%q) = (%q, true), want no match", url, key)
		}
	}
}
