// Package swagger embeds the OpenAPI document served at /openapi.json.
package swagger

import _ "embed"

//go:embed users.swagger.json
var Spec []byte
