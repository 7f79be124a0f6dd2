// Package openapi builds the minimal OpenAPI document served at /docs.
package openapi

// Document represents a minimal OpenAPI document.
type Document struct {
	OpenAPI    string         `json:"openapi"`
	Info       Info           `json:"info"`
	Paths      map[string]any `json:"paths,omitempty"`
	Components Components     `json:"components,omitempty"`
	Extensions map[string]any `json:"-"`
}

// Info captures OpenAPI metadata.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Components aggregates schema components.
type Components struct {
	Schemas         map[string]any `json:"schemas,omitempty"`
	SecuritySchemes map[string]any `json:"securitySchemes,omitempty"`
}

// Operation describes one method on a path.
type Operation struct {
	Summary     string
	Tags        []string
	Secured     bool
	RequestBody map[string]any
	Parameters  []map[string]any
	// Responses maps status codes to descriptions.
	Responses map[string]string
}

// NewDocument constructs a minimal OpenAPI document.
func NewDocument(title, version string) *Document {
	return &Document{
		OpenAPI: "3.0.3",
		Info: Info{
			Title:   title,
			Version: version,
		},
		Paths: map[string]any{},
		Components: Components{
			Schemas:         map[string]any{},
			SecuritySchemes: map[string]any{},
		},
		Extensions: map[string]any{},
	}
}

// AddSchema registers a component schema.
func (d *Document) AddSchema(name string, schema map[string]any) {
	if d == nil || name == "" || schema == nil {
		return
	}
	if d.Components.Schemas == nil {
		d.Components.Schemas = map[string]any{}
	}
	d.Components.Schemas[name] = schema
}

// AddAPIKeyScheme registers an api key security scheme read from in ("header"
// or "query") under name.
func (d *Document) AddAPIKeyScheme(id, in, name string) {
	if d == nil || id == "" {
		return
	}
	if d.Components.SecuritySchemes == nil {
		d.Components.SecuritySchemes = map[string]any{}
	}
	d.Components.SecuritySchemes[id] = map[string]any{
		"type": "apiKey",
		"in":   in,
		"name": name,
	}
}

// AddOperation registers op under path and method (lower case).
func (d *Document) AddOperation(path, method string, op Operation) {
	if d == nil || path == "" || method == "" {
		return
	}
	if d.Paths == nil {
		d.Paths = map[string]any{}
	}
	item, _ := d.Paths[path].(map[string]any)
	if item == nil {
		item = map[string]any{}
		d.Paths[path] = item
	}

	entry := map[string]any{"summary": op.Summary}
	if len(op.Tags) > 0 {
		entry["tags"] = op.Tags
	}
	if len(op.Parameters) > 0 {
		entry["parameters"] = op.Parameters
	}
	if op.RequestBody != nil {
		entry["requestBody"] = op.RequestBody
	}
	responses := map[string]any{}
	for status, description := range op.Responses {
		responses[status] = map[string]any{"description": description}
	}
	entry["responses"] = responses
	if op.Secured {
		schemes := make([]any, 0, len(d.Components.SecuritySchemes))
		for id := range d.Components.SecuritySchemes {
			schemes = append(schemes, map[string]any{id: []any{}})
		}
		entry["security"] = schemes
	}
	item[method] = entry
}

// SetExtension sets a vendor extension on the document.
func (d *Document) SetExtension(key string, value any) {
	if d == nil || key == "" {
		return
	}
	if d.Extensions == nil {
		d.Extensions = map[string]any{}
	}
	d.Extensions[key] = value
}

// AsMap returns the document as a map, extensions included.
func (d *Document) AsMap() map[string]any {
	if d == nil {
		return nil
	}
	info := map[string]any{
		"title":   d.Info.Title,
		"version": d.Info.Version,
	}
	if d.Info.Description != "" {
		info["description"] = d.Info.Description
	}
	out := map[string]any{
		"openapi": d.OpenAPI,
		"info":    info,
	}
	if len(d.Paths) > 0 {
		out["paths"] = d.Paths
	} else {
		out["paths"] = map[string]any{}
	}
	components := map[string]any{}
	if len(d.Components.Schemas) > 0 {
		components["schemas"] = d.Components.Schemas
	}
	if len(d.Components.SecuritySchemes) > 0 {
		components["securitySchemes"] = d.Components.SecuritySchemes
	}
	if len(components) > 0 {
		out["components"] = components
	}
	for key, value := range d.Extensions {
		out[key] = value
	}
	return out
}
