package remote

import (
	"context"
	"net/url"
	"time"

	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/ports"
)

// EntryStore reads and writes content entries in the CMS.
//
// API Contract:
//
//	GET /models/{id}/entries?limit=25&offset=0
//	Response: {"data": [{...}], "total": 120}
//
//	GET /entries/{id}
//	Response: {"data": {"id": "...", "model_id": "...", "data": {...}}}
//
//	POST /models/{id}/entries
//	Request:  {"data": {...}}
//	Response: {"data": {...}}
//
//	PUT /entries/{id}
//	Request:  {"data": {...}}
//	Response: {"data": {...}}
//
//	DELETE /entries/{id}
//	Response: 204
type EntryStore struct {
	client *Client
}

// NewEntryStore creates a remote entry store.
func NewEntryStore(client *Client) *EntryStore {
	return &EntryStore{client: client}
}

// RemoteEntry is the wire format for entries. Data decodes through
// node.Value so key order survives the round trip.
type RemoteEntry struct {
	ID        string     `json:"id"`
	ModelID   string     `json:"model_id"`
	Status    string     `json:"status,omitempty"`
	Data      node.Value `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type entryWrite struct {
	Data node.Value `json:"data"`
}

type entryResponse struct {
	Data RemoteEntry `json:"data"`
}

// ListEntries returns one page of entries of a model.
func (s *EntryStore) ListEntries(ctx context.Context, modelID string, page content.Page) (content.ListResult[content.Entry], error) {
	var resp struct {
		Data  []RemoteEntry `json:"data"`
		Total int           `json:"total"`
	}
	path := "/models/" + url.PathEscape(modelID) + "/entries" + pageQuery(page)
	if err := s.client.Request(ctx, "GET", path, nil, &resp); err != nil {
		return content.ListResult[content.Entry]{}, err
	}

	items := make([]content.Entry, len(resp.Data))
	for i, re := range resp.Data {
		items[i] = toEntry(re, modelID)
	}
	return content.ListResult[content.Entry]{Items: items, Total: resp.Total}, nil
}

// GetEntry returns one entry.
func (s *EntryStore) GetEntry(ctx context.Context, id string) (content.Entry, error) {
	var resp entryResponse
	if err := s.client.Request(ctx, "GET", "/entries/"+url.PathEscape(id), nil, &resp); err != nil {
		return content.Entry{}, err
	}
	return toEntry(resp.Data, ""), nil
}

// CreateEntry stores a new entry.
func (s *EntryStore) CreateEntry(ctx context.Context, modelID string, data node.Value) (content.Entry, error) {
	var resp entryResponse
	path := "/models/" + url.PathEscape(modelID) + "/entries"
	if err := s.client.Request(ctx, "POST", path, entryWrite{Data: data}, &resp); err != nil {
		return content.Entry{}, err
	}
	return toEntry(resp.Data, modelID), nil
}

// UpdateEntry replaces the complete data of an entry.
func (s *EntryStore) UpdateEntry(ctx context.Context, id string, data node.Value) (content.Entry, error) {
	var resp entryResponse
	if err := s.client.Request(ctx, "PUT", "/entries/"+url.PathEscape(id), entryWrite{Data: data}, &resp); err != nil {
		return content.Entry{}, err
	}
	return toEntry(resp.Data, ""), nil
}

// DeleteEntry removes an entry.
func (s *EntryStore) DeleteEntry(ctx context.Context, id string) error {
	return s.client.Request(ctx, "DELETE", "/entries/"+url.PathEscape(id), nil, nil)
}

func toEntry(re RemoteEntry, modelID string) content.Entry {
	if re.ModelID == "" {
		re.ModelID = modelID
	}
	if re.Data.IsNull() {
		re.Data = node.Map()
	}
	return content.Entry{
		ID:        re.ID,
		ModelID:   re.ModelID,
		Status:    re.Status,
		Data:      re.Data,
		CreatedAt: re.CreatedAt,
		UpdatedAt: re.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ ports.EntryStore = (*EntryStore)(nil)
