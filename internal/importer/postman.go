// Package importer converts external collection exports into stored
// collections and requests.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/interfaces"
)

// ErrParseError indicates the input could not be parsed as a collection
// export.
var ErrParseError = errors.New("failed to parse import")

// PostmanImporter imports Postman collection format (v2.0 and v2.1) into the
// persistence layer. Folders become nested collections; requests keep their
// headers, body and auth.
type PostmanImporter struct {
	persist interfaces.Persistence
}

// NewPostmanImporter creates an importer writing through the given store.
func NewPostmanImporter(persist interfaces.Persistence) *PostmanImporter {
	return &PostmanImporter{persist: persist}
}

// DetectFormat reports whether the content looks like a Postman collection.
func (p *PostmanImporter) DetectFormat(content []byte) bool {
	var check struct {
		Info struct {
			Schema string `json:"schema"`
		} `json:"info"`
	}

	if err := json.Unmarshal(content, &check); err != nil {
		return false
	}

	return strings.Contains(check.Info.Schema, "schema.getpostman.com/json/collection")
}

// ImportBundle parses the serialized export and creates a collection tree
// mirroring its folder structure. Malformed input fails before anything is
// written.
func (p *PostmanImporter) ImportBundle(ctx context.Context, serialized string) error {
	var pm postmanCollection
	if err := json.Unmarshal([]byte(serialized), &pm); err != nil {
		return fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if pm.Info.Name == "" {
		return fmt.Errorf("%w: collection has no name", ErrParseError)
	}

	root, err := p.persist.CreateCollection(ctx, pm.Info.Name, pm.Info.Description, nil)
	if err != nil {
		return err
	}

	rootID := root.ID()
	for _, item := range pm.Item {
		if err := p.importItem(ctx, &rootID, item); err != nil {
			return err
		}
	}

	return nil
}

func (p *PostmanImporter) importItem(ctx context.Context, parentID *string, item postmanItem) error {
	// An item with sub-items is a folder; anything with a request block is a
	// request. Empty folders import as collections too.
	if item.Request == nil {
		folder, err := p.persist.CreateCollection(ctx, item.Name, item.Description, parentID)
		if err != nil {
			return err
		}
		folderID := folder.ID()
		for _, subItem := range item.Item {
			if err := p.importItem(ctx, &folderID, subItem); err != nil {
				return err
			}
		}
		return nil
	}

	req, err := p.convertRequest(item)
	if err != nil {
		return err
	}
	req.SetCollectionID(parentID)
	_, err = p.persist.CreateRequest(ctx, req)
	return err
}

func (p *PostmanImporter) convertRequest(item postmanItem) (*core.Request, error) {
	pm := item.Request

	method := core.MethodGet
	if pm.Method != "" {
		method = core.Method(strings.ToUpper(pm.Method))
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unsupported method %q", ErrParseError, pm.Method)
	}

	req := core.NewRequest(item.Name, method, extractURL(pm.URL))
	req.SetDescription(pm.Description)

	var pairs []core.HeaderPair
	for _, h := range pm.Header {
		if !h.Disabled {
			pairs = append(pairs, core.HeaderPair{Key: h.Key, Value: h.Value})
		}
	}
	req.SetHeaders(core.KeyValueHeaders(pairs))

	if pm.Body != nil {
		switch pm.Body.Mode {
		case "raw":
			format := core.FormatText
			if pm.Body.Options != nil && pm.Body.Options.Raw != nil {
				format = rawLanguageFormat(pm.Body.Options.Raw.Language)
			}
			req.SetBody(core.RawBody(pm.Body.Raw, format))
		case "graphql":
			if pm.Body.GraphQL != nil {
				req.SetBody(core.GraphQLBody(pm.Body.GraphQL.Query, pm.Body.GraphQL.Variables))
			}
		case "urlencoded":
			var parts []string
			for _, pair := range pm.Body.URLEncoded {
				if !pair.Disabled {
					parts = append(parts, fmt.Sprintf("%s=%s", pair.Key, pair.Value))
				}
			}
			req.SetBody(core.RawBody(strings.Join(parts, "&"), core.FormatText))
		}
	}

	if pm.Auth != nil {
		req.SetAuth(convertAuth(pm.Auth))
	}

	return req, nil
}

func rawLanguageFormat(language string) core.BodyFormat {
	switch strings.ToLower(language) {
	case "json":
		return core.FormatJSON
	case "html":
		return core.FormatHTML
	case "xml":
		return core.FormatXML
	case "javascript":
		return core.FormatJavaScript
	default:
		return core.FormatText
	}
}

// convertAuth flattens Postman auth blocks to an Authorization header value.
// Unsupported schemes import as empty auth.
func convertAuth(auth *postmanAuth) string {
	switch auth.Type {
	case "bearer":
		for _, item := range auth.Bearer {
			if item.Key == "token" {
				return "Bearer " + item.Value
			}
		}
	case "basic":
		var username, password string
		for _, item := range auth.Basic {
			if item.Key == "username" {
				username = item.Value
			}
			if item.Key == "password" {
				password = item.Value
			}
		}
		if username != "" || password != "" {
			return "Basic " + basicCredentials(username, password)
		}
	}
	return ""
}

func extractURL(url interface{}) string {
	switch v := url.(type) {
	case string:
		return v
	case map[string]interface{}:
		if raw, ok := v["raw"].(string); ok {
			return raw
		}
		var result strings.Builder
		if protocol, ok := v["protocol"].(string); ok {
			result.WriteString(protocol)
			result.WriteString("://")
		}
		if host, ok := v["host"].([]interface{}); ok {
			var hostParts []string
			for _, h := range host {
				if s, ok := h.(string); ok {
					hostParts = append(hostParts, s)
				}
			}
			result.WriteString(strings.Join(hostParts, "."))
		}
		if port, ok := v["port"].(string); ok {
			result.WriteString(":")
			result.WriteString(port)
		}
		if path, ok := v["path"].([]interface{}); ok {
			for _, p := range path {
				if s, ok := p.(string); ok {
					result.WriteString("/")
					result.WriteString(s)
				}
			}
		}
		return result.String()
	}
	return ""
}
