package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ID identifies a backend record. The Fee API uses integer primary keys
// while locally created chat messages use string ids, so ID accepts both
// JSON numbers and strings.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Document is an uploaded document record.
type Document struct {
	ID         ID        `json:"id"`
	Title      string    `json:"title"`
	File       string    `json:"file"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Analysis is the structured inclusivity analysis of one document.
type Analysis struct {
	OverallAssessment OverallAssessment              `json:"overall_assessment"`
	FeePerspective    FeePerspective                 `json:"fee_perspective"`
	FacetAnalysis     map[string]map[string][]string `json:"facet_analysis"`
}

// OverallAssessment summarises the analysis. InclusivityScore is a ratio in [0,1].
type OverallAssessment struct {
	InclusivityScore   float64  `json:"inclusivity_score"`
	ScoreJustification string   `json:"score_justification"`
	MajorConcerns      []string `json:"major_concerns"`
	PositiveAspects    []string `json:"positive_aspects"`
}

// FeePerspective holds Fee's expectations per aspect and recommendations.
type FeePerspective struct {
	Expectations    map[string]Expectation `json:"expectations"`
	Recommendations []string               `json:"recommendations"`
}

// Expectation pairs Fee's perspective on an aspect with its inclusivity consideration.
type Expectation struct {
	Perspective   string `json:"perspective"`
	Consideration string `json:"consideration"`
}

// AnalysisRecord is a stored analysis as returned by GET /analyses/{id}/.
type AnalysisRecord struct {
	ID                     ID        `json:"id"`
	Document               ID        `json:"document"`
	FeePerspectiveAnalysis Analysis  `json:"fee_perspective_analysis"`
	CreatedAt              time.Time `json:"created_at"`
}

// ChatMessage is one message in a conversation.
type ChatMessage struct {
	ID             ID        `json:"id"`
	Message        string    `json:"message"`
	IsFee          bool      `json:"is_fee"`
	Timestamp      time.Time `json:"timestamp"`
	IsSystem       bool      `json:"is_system,omitempty"`
	Document       ID        `json:"document,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	ContextType    string    `json:"context_type,omitempty"`
}

// ChatResponse is the body returned by the chat endpoints.
type ChatResponse struct {
	Conversation []ChatMessage `json:"conversation"`
}

// FeeReply returns the first message authored by Fee, if any.
func (r *ChatResponse) FeeReply() (ChatMessage, bool) {
	for _, m := range r.Conversation {
		if m.IsFee {
			return m, true
		}
	}
	return ChatMessage{}, false
}

// HistoryPage is the paginated history envelope, returned unmodified.
type HistoryPage struct {
	Count    int           `json:"count,omitempty"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous,omitempty"`
	Results  []ChatMessage `json:"results"`
}

// HasNext reports whether the server advertised another page.
func (p *HistoryPage) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}
