package api

import (
	"github.com/marbeck/raido/internal/docservice"
	"github.com/marbeck/raido/internal/index"
	"github.com/marbeck/raido/internal/suggest"
	"github.com/marbeck/raido/internal/trigger"
)

// DocDetail is the full document response type (aliased from the domain layer).
type DocDetail = docservice.DocDetail

// DocListItem is a lightweight item in a list response (aliased from the domain layer).
type DocListItem = docservice.DocListItem

// DocListResponse wraps paginated document listings.
type DocListResponse struct {
	Documents []DocListItem `json:"documents" validate:"required"`
	Total     int           `json:"total" example:"42" validate:"required"`
}

// RedirectsResponse wraps a filtered redirect listing.
type RedirectsResponse struct {
	Redirects []suggest.Suggestion `json:"redirects" validate:"required"`
}

// SuggestResponse is the result of a trigger scan over one line.
// Span and Suggestions are only present when Triggered is true.
type SuggestResponse struct {
	Triggered   bool                 `json:"triggered"`
	Span        *trigger.Span        `json:"span,omitempty"`
	Suggestions []suggest.Suggestion `json:"suggestions,omitempty"`
}

// AcceptRequest asks the server to apply a chosen suggestion to a line.
type AcceptRequest struct {
	Line   string `json:"line" example:"open r[cat" validate:"required"`
	Cursor int    `json:"cursor" example:"10" validate:"required"`
	Alias  string `json:"alias" example:"Cat Photo" validate:"required"`
	Path   string `json:"path" example:"img/cat.png" validate:"required"`
}

// AcceptResponse carries the spliced line and the new cursor column.
type AcceptResponse struct {
	Line   string `json:"line" validate:"required"`
	Cursor int    `json:"cursor" validate:"required"`
}

// DeclareRedirectsRequest sets a note's redirect targets.
type DeclareRedirectsRequest struct {
	Targets []string `json:"targets" example:"img/x.png" validate:"required"`
}

// SearchResponse wraps document-lookup results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Path string `json:"path" example:"attachments/image.png" validate:"required"`
	Size int64  `json:"size" example:"12345" validate:"required"`
	URL  string `json:"url" example:"/files/attachments/image.png" validate:"required"`
}
