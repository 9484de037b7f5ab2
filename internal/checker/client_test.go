package checker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "language": {"name": "English (US)", "code": "en-US"},
  "matches": [{
    "message": "Possible spelling mistake found.",
    "shortMessage": "Spelling mistake",
    "offset": 0,
    "length": 4,
    "replacements": [{"value": "Hello"}, {"value": "Help"}],
    "rule": {
      "id": "MORFOLOGIK_RULE_EN_US",
      "description": "Possible spelling mistake",
      "issueType": "misspelling",
      "urls": [{"value": "https://example.org/spelling"}],
      "category": {"id": "TYPOS", "name": "Possible Typo"}
    }
  }]
}`

func TestClientCheckPostsForm(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/check", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v2/", WithCredentials("me", "secret"))
	req := &Request{
		Language:      "en-US",
		Level:         "picky",
		DisabledRules: []string{"WHITESPACE_RULE", "EN_QUOTES"},
		Annotations: []Annotation{
			{Text: "Helo "},
			{Markup: "`x`", InterpretAs: "code"},
			{Text: " world."},
		},
	}
	resp, err := c.Check(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "en-US", gotForm["language"])
	assert.Equal(t, "picky", gotForm["level"])
	assert.Equal(t, "WHITESPACE_RULE,EN_QUOTES", gotForm["disabledRules"])
	assert.Equal(t, "me", gotForm["username"])
	assert.Equal(t, "secret", gotForm["apiKey"])
	assert.NotContains(t, gotForm, "enabledRules")

	var data struct {
		Annotation []map[string]string `json:"annotation"`
	}
	require.NoError(t, json.Unmarshal([]byte(gotForm["data"]), &data))
	assert.Equal(t, []map[string]string{
		{"text": "Helo "},
		{"markup": "`x`", "interpretAs": "code"},
		{"text": " world."},
	}, data.Annotation)

	require.Len(t, resp.Matches, 1)
	m := resp.Matches[0]
	assert.Equal(t, 0, m.Offset)
	assert.Equal(t, 4, m.Length)
	assert.Equal(t, "MORFOLOGIK_RULE_EN_US", m.Rule.ID)
	assert.Equal(t, "misspelling", m.Rule.IssueType)
	assert.Equal(t, []Replacement{{Value: "Hello"}, {Value: "Help"}}, m.Replacements)
	assert.Equal(t, "https://example.org/spelling", m.Rule.URLs[0].Value)
	assert.Equal(t, "en-US", resp.Language.Code)
}

func TestClientDefaultsLanguageToAuto(t *testing.T) {
	var language string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		language = r.FormValue("language")
		_, _ = w.Write([]byte(`{"matches": []}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Check(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
	assert.Equal(t, "auto", language)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Check(context.Background(), &Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrService)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, "too many requests", se.Body)
}

func TestClientMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"matches": [`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Check(context.Background(), &Request{})
	assert.ErrorIs(t, err, ErrService)
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := NewClient(base, WithTimeout(2*time.Second)).Check(context.Background(), &Request{})
	assert.ErrorIs(t, err, ErrService)
}

func TestNewClientNormalisesBaseURL(t *testing.T) {
	assert.Equal(t, DefaultServerURL, NewClient("").BaseURL())
	assert.Equal(t, "http://lt:8010", NewClient("http://lt:8010/v2/").BaseURL())
	assert.Equal(t, "http://lt:8010", NewClient(" http://lt:8010 ").BaseURL())
}

func TestRequestKeyDependsOnInputs(t *testing.T) {
	a := &Request{Language: "en", Annotations: []Annotation{{Text: "x"}}}
	b := &Request{Language: "en", Annotations: []Annotation{{Text: "x"}}}
	c := &Request{Language: "de", Annotations: []Annotation{{Text: "x"}}}
	d := &Request{Language: "en", Annotations: []Annotation{{Markup: "x"}}}

	ka, err := a.Key()
	require.NoError(t, err)
	kb, _ := b.Key()
	kc, _ := c.Key()
	kd, _ := d.Key()
	assert.Equal(t, ka, kb)
	assert.NotEqual(t, ka, kc)
	assert.NotEqual(t, ka, kd)
	assert.Len(t, ka, 64)
}
