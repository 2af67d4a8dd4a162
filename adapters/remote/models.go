package remote

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/artpar/cmsdesk/domain/content"
	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/ports"
)

// ModelStore reads content models from the CMS.
//
// API Contract:
//
//	GET /models?limit=25&offset=0
//	Response: {"data": [{...}], "total": 3}
//
//	GET /models/{id}
//	Response: {"data": {"id": "...", "name": "...", "fields": [...]}}
type ModelStore struct {
	client *Client
}

// NewModelStore creates a remote model store.
func NewModelStore(client *Client) *ModelStore {
	return &ModelStore{client: client}
}

// RemoteModel is the wire format for models. Fields stay a node.Value so
// field definitions of any shape reach field.FromValue.
type RemoteModel struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Identifier  string     `json:"apiIdentifier,omitempty"`
	Description string     `json:"description,omitempty"`
	Fields      node.Value `json:"fields"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListModels returns one page of models.
func (s *ModelStore) ListModels(ctx context.Context, page content.Page) (content.ListResult[content.Model], error) {
	var resp struct {
		Data  []RemoteModel `json:"data"`
		Total int           `json:"total"`
	}
	if err := s.client.Request(ctx, "GET", "/models"+pageQuery(page), nil, &resp); err != nil {
		return content.ListResult[content.Model]{}, err
	}

	items := make([]content.Model, 0, len(resp.Data))
	for _, rm := range resp.Data {
		m, err := toModel(rm)
		if err != nil {
			return content.ListResult[content.Model]{}, err
		}
		items = append(items, m)
	}
	return content.ListResult[content.Model]{Items: items, Total: resp.Total}, nil
}

// GetModel returns a model with its field definitions.
func (s *ModelStore) GetModel(ctx context.Context, id string) (content.Model, error) {
	var resp struct {
		Data RemoteModel `json:"data"`
	}
	if err := s.client.Request(ctx, "GET", "/models/"+url.PathEscape(id), nil, &resp); err != nil {
		return content.Model{}, err
	}
	return toModel(resp.Data)
}

func toModel(rm RemoteModel) (content.Model, error) {
	var fields []field.Definition
	if !rm.Fields.IsNull() {
		var err error
		fields, err = field.FromValue(rm.Fields)
		if err != nil {
			return content.Model{}, fmt.Errorf("model %s: %w", rm.ID, err)
		}
	}
	return content.Model{
		ID:          rm.ID,
		Name:        rm.Name,
		Identifier:  rm.Identifier,
		Description: rm.Description,
		Fields:      fields,
		CreatedAt:   rm.CreatedAt,
		UpdatedAt:   rm.UpdatedAt,
	}, nil
}

func pageQuery(page content.Page) string {
	page = page.Normalize()
	q := url.Values{}
	q.Set("limit", strconv.Itoa(page.Limit))
	q.Set("offset", strconv.Itoa(page.Offset))
	return "?" + q.Encode()
}

// Ensure interface compliance.
var _ ports.ModelStore = (*ModelStore)(nil)
