package catalog

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"hubbleplay/internal/model"
)

const schemaID = "https://hubble-rpc.xyz/schemas/hubbleplay-catalog.json"

// Schema returns the JSON Schema describing catalog files.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		FieldNameTag:               "json",
		RequiredFromJSONSchemaTags: false,
		DoNotReference:             true,
	}
	s := r.Reflect(&model.Catalog{})
	s.ID = schemaID
	s.Title = "hubbleplay catalog"
	s.Description = "APIs and endpoints available in the API playground"

	if method := endpointProperty(s, "method"); method != nil {
		for _, m := range model.Methods {
			method.Enum = append(method.Enum, string(m))
		}
	}
	return s
}

// SchemaJSON renders Schema with two-space indentation.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}

func endpointProperty(s *jsonschema.Schema, name string) *jsonschema.Schema {
	apis, ok := s.Properties.Get("apis")
	if !ok || apis.Items == nil {
		return nil
	}
	endpoints, ok := apis.Items.Properties.Get("endpoints")
	if !ok || endpoints.Items == nil {
		return nil
	}
	prop, ok := endpoints.Items.Properties.Get(name)
	if !ok {
		return nil
	}
	return prop
}
