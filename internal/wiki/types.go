package wiki

import (
	"fmt"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
)

// APIError is an error payload returned by the MediaWiki API.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki api error %s: %s", e.Code, e.Info)
}

// Retryable reports whether the request may succeed when repeated.
func (e *APIError) Retryable() bool {
	switch e.Code {
	case "maxlag", "ratelimited", "readonly", "internal_api_error_DBQueryError":
		return true
	}
	return false
}

type queryResponse struct {
	Continue map[string]string `json:"continue"`
	Query    struct {
		Statistics      *apiStatistics `json:"statistics"`
		CategoryMembers []apiMember    `json:"categorymembers"`
		Pages           []apiPage      `json:"pages"`
	} `json:"query"`
}

type apiMember struct {
	Title string `json:"title"`
	NS    int    `json:"ns"`
}

type apiPage struct {
	Title     string        `json:"title"`
	Revisions []apiRevision `json:"revisions"`
	PageID    int64         `json:"pageid"`
	Missing   bool          `json:"missing"`
	Invalid   bool          `json:"invalid"`
}

type apiRevision struct {
	Slots struct {
		Main apiSlot `json:"main"`
	} `json:"slots"`
	Timestamp  string `json:"timestamp"`
	User       string `json:"user"`
	RevID      int64  `json:"revid"`
	ParentID   int64  `json:"parentid"`
	UserHidden bool   `json:"userhidden"`
	// Suppressed revisions may drop the slot and flag the revision itself.
	TextHidden bool `json:"texthidden"`
}

type apiSlot struct {
	Content     string `json:"content"`
	TextHidden  bool   `json:"texthidden"`
	TextMissing bool   `json:"textmissing"`
}

type apiStatistics struct {
	Pages    int `json:"pages"`
	Articles int `json:"articles"`
	Edits    int `json:"edits"`
	Users    int `json:"users"`
}

// page returns the single page of a titles= query.
func (r *queryResponse) page(title string) (*apiPage, error) {
	if len(r.Query.Pages) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrPageNotFound, title)
	}
	p := &r.Query.Pages[0]
	if p.Missing || p.Invalid {
		return nil, fmt.Errorf("%w: %s", common.ErrPageNotFound, title)
	}
	return p, nil
}

func (r apiRevision) toModel() (model.Revision, error) {
	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return model.Revision{}, fmt.Errorf("%w: revision %d has bad timestamp %q", common.ErrUpstream, r.RevID, r.Timestamp)
	}
	return model.Revision{
		ID:         r.RevID,
		ParentID:   r.ParentID,
		Timestamp:  ts.UTC(),
		User:       r.User,
		Text:       r.Slots.Main.Content,
		TextHidden: r.TextHidden || r.Slots.Main.TextHidden || r.Slots.Main.TextMissing,
		UserHidden: r.UserHidden,
	}, nil
}
