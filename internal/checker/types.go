package checker

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Annotation is one element of a LanguageTool "data" payload: either text to
// check or markup to skip, read as InterpretAs.
type Annotation struct {
	Text        string `json:"text,omitempty"`
	Markup      string `json:"markup,omitempty"`
	InterpretAs string `json:"interpretAs,omitempty"`
}

// Request is one check call. Offsets in the response are relative to the
// concatenation of all annotation texts and markups.
type Request struct {
	Language      string
	Level         string
	EnabledRules  []string
	DisabledRules []string
	Annotations   []Annotation
}

type dataPayload struct {
	Annotation []Annotation `json:"annotation"`
}

// Data encodes the annotations as the "data" form field.
func (r *Request) Data() ([]byte, error) {
	annotations := r.Annotations
	if annotations == nil {
		annotations = []Annotation{}
	}
	return json.Marshal(dataPayload{Annotation: annotations})
}

// Key identifies a request for caching.
func (r *Request) Key() (string, error) {
	data, err := r.Data()
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(r.Language))
	h.Write([]byte{0})
	h.Write([]byte(r.Level))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(r.EnabledRules, ",")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(r.DisabledRules, ",")))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Response is the decoded body of /v2/check.
type Response struct {
	Language Language `json:"language"`
	Matches  []Match  `json:"matches"`
}

// Language describes the language the server used.
type Language struct {
	Name             string            `json:"name"`
	Code             string            `json:"code"`
	DetectedLanguage *DetectedLanguage `json:"detectedLanguage,omitempty"`
}

// DetectedLanguage is reported when the request asked for "auto".
type DetectedLanguage struct {
	Name       string  `json:"name"`
	Code       string  `json:"code"`
	Confidence float64 `json:"confidence"`
}

// Match is one finding. Offset and Length count characters of the submitted
// chunk.
type Match struct {
	Message      string        `json:"message"`
	ShortMessage string        `json:"shortMessage"`
	Offset       int           `json:"offset"`
	Length       int           `json:"length"`
	Replacements []Replacement `json:"replacements"`
	Rule         Rule          `json:"rule"`
	Sentence     string        `json:"sentence,omitempty"`
}

// Replacement is a suggested substitute for the matched text.
type Replacement struct {
	Value string `json:"value"`
}

// Rule identifies the checker rule that produced a match.
type Rule struct {
	ID          string   `json:"id"`
	SubID       string   `json:"subId,omitempty"`
	Description string   `json:"description"`
	IssueType   string   `json:"issueType,omitempty"`
	URLs        []URL    `json:"urls,omitempty"`
	Category    Category `json:"category"`
}

// URL points at documentation for a rule.
type URL struct {
	Value string `json:"value"`
}

// Category groups rules.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
