package gateway

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/unionhall/gameshelf/model"
)

// ListGames fetches the full item set. An empty token is allowed: the store
// serves the public view (internal notes stripped server-side).
func (c *Client) ListGames(ctx context.Context, token string) ([]model.Game, error) {
	var games []model.Game
	if err := c.doJSON(ctx, http.MethodGet, "/api/games", token, nil, nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// GetGame fetches a single item by id.
func (c *Client) GetGame(ctx context.Context, token string, id int64) (*model.Game, error) {
	var game model.Game
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/games/%d", id), token, nil, nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// CreateGame adds a new catalog entry and returns it with the server-assigned id.
func (c *Client) CreateGame(ctx context.Context, token string, draft model.Game) (*model.Game, error) {
	var created model.Game
	if err := c.doJSON(ctx, http.MethodPost, "/api/games", token, nil, draft, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateGame applies a sparse patch to an existing entry.
func (c *Client) UpdateGame(ctx context.Context, token string, id int64, patch model.GamePatch) (*model.Game, error) {
	var updated model.Game
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/games/%d", id), token, nil, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteGame removes an entry.
func (c *Client) DeleteGame(ctx context.Context, token string, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/games/%d", id), token, nil, nil, nil)
}

// CheckoutGame records one checkout of the item.
func (c *Client) CheckoutGame(ctx context.Context, token string, id int64) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/games/%d/checkout", id), token, nil, nil, nil)
}

// ReturnGame records one returned copy of the item.
func (c *Client) ReturnGame(ctx context.Context, token string, id int64) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/games/%d/return", id), token, nil, nil, nil)
}

// ReturnAllGames marks every outstanding copy returned and reports the items
// that changed.
func (c *Client) ReturnAllGames(ctx context.Context, token string) ([]model.Game, error) {
	var changed []model.Game
	if err := c.doJSON(ctx, http.MethodPut, "/api/games/return-all", token, nil, nil, &changed); err != nil {
		return nil, err
	}
	return changed, nil
}

// ImportCSV uploads a tabular file for server-side import. The store skips
// rows whose name duplicates an existing entry.
func (c *Client) ImportCSV(ctx context.Context, token, filename string, r io.Reader) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	resp, err := c.do(ctx, http.MethodPost, "/api/games/import", token, nil, pr, mw.FormDataContentType())
	if err != nil {
		// The transport may never have touched the body; unblock the copier.
		pr.CloseWithError(err)
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// ExportCSV streams the catalog as CSV. The caller must close the reader.
func (c *Client) ExportCSV(ctx context.Context, token string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/games/download-csv", token, nil, nil, "")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Stats runs the aggregate query over an optional date range. Nothing is
// cached; the payload goes straight back to the caller.
func (c *Client) Stats(ctx context.Context, token string, from, to *time.Time) (*model.Stats, error) {
	query := url.Values{}
	if from != nil {
		query.Set("startDate", from.Format("2006-01-02"))
	}
	if to != nil {
		query.Set("endDate", to.Format("2006-01-02"))
	}
	var stats model.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/api/games/stats", token, query, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
