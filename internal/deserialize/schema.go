package deserialize

import "github.com/invopop/jsonschema"

// Schemas reflects the payload type of every registered deserializer, keyed
// by deserializer id.
func (r *Registry) Schemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		AllowAdditionalProperties:  true,
	}
	out := make(map[string]*jsonschema.Schema, len(r.deserializers))
	for _, d := range r.deserializers {
		schema := reflector.ReflectFromType(d.payload)
		schema.Title = d.id
		out[d.id] = schema
	}
	return out
}
