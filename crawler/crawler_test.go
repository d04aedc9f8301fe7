package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>Gemeinderat Musterstadt</title>
	<style>body { color: red; }</style>
	<script>alert("tracking");</script>
</head>
<body>
	<div class="wrapper" id="main" data-track="1">
		<h1>Ansprechpartner Verkehrspolitik</h1>
		<img src="/logo.png" alt="Logo">
		<div></div>
		<span>   </span>
		<p>Anna Schäfer – Vorsitzende</p>
		<a href="/personen/schaefer" class="profile">Profil von Anna Schäfer</a>
	</div>
</body>
</html>`

func mustBase(t *testing.T, raw string) *url.URL {
	t.Helper()
	base, err := url.Parse(raw)
	require.NoError(t, err)
	return base
}

func TestCleanHTML(t *testing.T) {
	cleaned, err := CleanHTML(samplePage, mustBase(t, "https://musterstadt.example/rat"))
	require.NoError(t, err)

	assert.NotContains(t, cleaned, "<script")
	assert.NotContains(t, cleaned, "alert", "script content is dropped, not just the tag")
	assert.NotContains(t, cleaned, "<style")
	assert.NotContains(t, cleaned, "color: red")
	assert.NotContains(t, cleaned, "<img")
	assert.NotContains(t, cleaned, "class=", "non-href attributes are stripped")
	assert.NotContains(t, cleaned, "<div></div>", "text-free elements are removed")

	assert.Contains(t, cleaned, "Anna Schäfer", "non-ASCII text survives cleaning")
	assert.Contains(t, cleaned, `href="https://musterstadt.example/personen/schaefer"`,
		"relative hrefs are resolved against the base URL")
}

func TestCleanHTML_NilBaseKeepsHrefs(t *testing.T) {
	cleaned, err := CleanHTML(`<p><a href="/x">link</a></p>`, nil)
	require.NoError(t, err)
	assert.Contains(t, cleaned, `href="/x"`)
}

func TestFetchCleanHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := New()
	cleaned, err := c.FetchCleanHTML(context.Background(), srv.URL+"/rat")
	require.NoError(t, err)
	assert.Contains(t, cleaned, "Ansprechpartner Verkehrspolitik")
	assert.Contains(t, cleaned, srv.URL+"/personen/schaefer")
}

func TestFetchCleanHTML_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New()
	_, err := c.FetchCleanHTML(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchCleanHTML_RelativeURL(t *testing.T) {
	c := New()
	_, err := c.FetchCleanHTML(context.Background(), "/nur/ein/pfad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an absolute URL")
}

func TestFindLinksWithText(t *testing.T) {
	cleaned := `<body>
		<a href="https://musterstadt.example/personen/schaefer">Anna Schäfer</a>
		<a href="https://musterstadt.example/impressum">Impressum</a>
	</body>`

	all, err := FindLinks(cleaned, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	personal, err := FindLinksWithText(cleaned, regexp.MustCompile(`/personen/`))
	require.NoError(t, err)
	require.Len(t, personal, 1)
	assert.Equal(t, "Anna Schäfer", personal[0].Text)
	assert.Equal(t, "https://musterstadt.example/personen/schaefer", personal[0].Href)
}
