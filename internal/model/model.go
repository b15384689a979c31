package model

import "strings"

type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodPatch  HTTPMethod = "PATCH"
	MethodDelete HTTPMethod = "DELETE"
)

// Methods lists the methods the playground can send, in UI order.
var Methods = []HTTPMethod{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}

func (m HTTPMethod) Valid() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

func (m HTTPMethod) String() string { return string(m) }

// ParseMethod normalizes s and reports whether it names a supported method.
func ParseMethod(s string) (HTTPMethod, bool) {
	m := HTTPMethod(strings.ToUpper(strings.TrimSpace(s)))
	return m, m.Valid()
}

type RequestParameter struct {
	Name         string `yaml:"name" json:"name" toml:"name"`
	Type         string `yaml:"type" json:"type" toml:"type"`
	Required     bool   `yaml:"required" json:"required" toml:"required"`
	Description  string `yaml:"description" json:"description" toml:"description"`
	DefaultValue string `yaml:"defaultValue,omitempty" json:"defaultValue,omitempty" toml:"defaultValue,omitempty"`
}

type ResponseExample struct {
	StatusCode  int     `yaml:"statusCode" json:"statusCode" toml:"statusCode"`
	Description string  `yaml:"description" json:"description" toml:"description"`
	Body        Payload `yaml:"body" json:"body" toml:"body"`
}

type CodeExample struct {
	Language string `yaml:"language" json:"language" toml:"language"`
	Label    string `yaml:"label" json:"label" toml:"label"`
	Code     string `yaml:"code" json:"code" toml:"code"`
}

// EndpointConfig is one callable operation of an API as described by the catalog.
// RequestParameters, Responses and CodeExamples are documentation only.
type EndpointConfig struct {
	ID                string             `yaml:"id" json:"id" toml:"id"`
	Label             string             `yaml:"label" json:"label" toml:"label"`
	Method            HTTPMethod         `yaml:"method" json:"method" toml:"method"`
	Path              string             `yaml:"path" json:"path" toml:"path"`
	Description       string             `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	SampleBody        Payload            `yaml:"sampleBody,omitempty" json:"sampleBody,omitempty" toml:"sampleBody,omitempty"`
	SupportsStream    bool               `yaml:"supportsStream,omitempty" json:"supportsStream,omitempty" toml:"supportsStream,omitempty"`
	RequestParameters []RequestParameter `yaml:"requestParameters,omitempty" json:"requestParameters,omitempty" toml:"requestParameters,omitempty"`
	Responses         []ResponseExample  `yaml:"responses,omitempty" json:"responses,omitempty" toml:"responses,omitempty"`
	CodeExamples      []CodeExample      `yaml:"codeExamples,omitempty" json:"codeExamples,omitempty" toml:"codeExamples,omitempty"`
}

type APIConfig struct {
	ID           string           `yaml:"id" json:"id" toml:"id"`
	Label        string           `yaml:"label" json:"label" toml:"label"`
	BaseURL      string           `yaml:"baseUrl" json:"baseUrl" toml:"baseUrl"`
	APIKeyHeader string           `yaml:"apiKeyHeader" json:"apiKeyHeader" toml:"apiKeyHeader"`
	Endpoints    []EndpointConfig `yaml:"endpoints" json:"endpoints" toml:"endpoints"`
}

// Endpoint returns the endpoint with the given id. Lookup is a linear scan.
func (a *APIConfig) Endpoint(id string) (*EndpointConfig, bool) {
	for i := range a.Endpoints {
		if a.Endpoints[i].ID == id {
			return &a.Endpoints[i], true
		}
	}
	return nil, false
}

// Catalog is the read-only list of APIs the playground can talk to.
type Catalog struct {
	APIs []APIConfig `yaml:"apis" json:"apis" toml:"apis"`
}

func (c *Catalog) API(id string) (*APIConfig, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.APIs {
		if c.APIs[i].ID == id {
			return &c.APIs[i], true
		}
	}
	return nil, false
}

// Descriptor flattens an API/endpoint pair into the immutable view consumed
// by the composer and executor.
func Descriptor(api *APIConfig, ep *EndpointConfig) EndpointDescriptor {
	return EndpointDescriptor{
		APIID:            api.ID,
		EndpointID:       ep.ID,
		Label:            ep.Label,
		Description:      ep.Description,
		Method:           ep.Method,
		BaseURL:          api.BaseURL,
		Path:             ep.Path,
		SampleBody:       ep.SampleBody,
		SupportsStream:   ep.SupportsStream,
		APIKeyHeaderName: api.APIKeyHeader,
	}
}

type EndpointDescriptor struct {
	APIID       string
	EndpointID  string
	Label       string
	Description string

	Method         HTTPMethod
	BaseURL        string
	Path           string
	SampleBody     Payload
	SupportsStream bool

	APIKeyHeaderName string
}

// URL is the request target: the API base URL with the endpoint path appended verbatim.
func (d EndpointDescriptor) URL() string {
	return d.BaseURL + d.Path
}
