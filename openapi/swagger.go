// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openapi

import (
	"bytes"
	"html/template"
)

// SwaggerUIVersion is the Swagger UI release loaded from the CDN.
const SwaggerUIVersion = "5.11.0"

// DocExpansionMode controls the default expansion of operations and tags.
type DocExpansionMode string

const (
	DocExpansionList DocExpansionMode = "list"
	DocExpansionFull DocExpansionMode = "full"
	DocExpansionNone DocExpansionMode = "none"
)

// UIConfig configures the documentation page.
type UIConfig struct {
	Title        string
	SpecURL      string
	DocExpansion DocExpansionMode
	DeepLinking  bool
}

var swaggerTemplate = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/swagger-ui/{{.Version}}/swagger-ui.min.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://cdnjs.cloudflare.com/ajax/libs/swagger-ui/{{.Version}}/swagger-ui-bundle.min.js"></script>
    <script>
    window.onload = () => {
        SwaggerUIBundle({
            url: {{.SpecURL}},
            dom_id: '#swagger-ui',
            docExpansion: {{.DocExpansion}},
            deepLinking: {{.DeepLinking}},
        });
    };
    </script>
</body>
</html>
`))

// SwaggerUI renders the documentation page pointing at cfg.SpecURL.
func SwaggerUI(cfg UIConfig) ([]byte, error) {
	if cfg.Title == "" {
		cfg.Title = "Swagger UI"
	}
	if cfg.SpecURL == "" {
		cfg.SpecURL = "/openapi.json"
	}
	if cfg.DocExpansion == "" {
		cfg.DocExpansion = DocExpansionList
	}

	var buf bytes.Buffer
	err := swaggerTemplate.Execute(&buf, struct {
		UIConfig
		Version      string
		DocExpansion string
	}{cfg, SwaggerUIVersion, string(cfg.DocExpansion)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
