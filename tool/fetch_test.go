package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<html><head><title>Example Domain</title><script>var x=1;</script></head>
<body><h1>Example Domain</h1><p>This domain is for use in <a href="https://iana.org">examples</a>.</p></body></html>`

func TestFetchPage_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	f := NewFetchPage(WithHTTPClient(srv.Client()))
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.Status)
	assert.Equal(t, "Example Domain", page.Title)
	assert.Contains(t, page.Markdown, "# Example Domain")
	assert.Contains(t, page.Markdown, "[examples](https://iana.org)")
	assert.NotContains(t, page.Markdown, "var x")
}

func TestFetchPage_CallTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>Long</title></head><body><p>" + strings.Repeat("a", 500) + "</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetchPage(WithHTTPClient(srv.Client()), WithMaxChars(50))
	out, err := f.Call(context.Background(), `{"url":"`+srv.URL+`"}`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Long\n"))
	assert.True(t, strings.HasSuffix(out, "\n..."))
}

func TestFetchPage_CallTruncatesOnRuneBoundary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>Café</title></head><body><p>" + strings.Repeat("é", 50) + "</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetchPage(WithHTTPClient(srv.Client()), WithMaxChars(5))
	out, err := f.Call(context.Background(), `{"url":"`+srv.URL+`"}`)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, "ééééé\n..."))
}

func TestFetchPage_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetchPage(WithHTTPClient(srv.Client()), WithFetchTimeout(time.Second), WithMaxBytes(1024))
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "status: 404")

	_, err = f.Fetch(context.Background(), "ftp://example.com")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}
