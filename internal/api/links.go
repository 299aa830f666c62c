package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/project>; rel="project"`,
		`</api/v1/markers>; rel="markers"`,
		`</api/v1/map>; rel="map"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/project>; rel="project"`,
	},
	"/api/v1/project": {
		`</api/v1/markers>; rel="markers"`,
		`</api/v1/project/export>; rel="export"`,
		`</api/v1/report.pdf>; rel="report"`,
	},
	"/api/v1/markers": {
		`</api/v1/markers.geojson>; rel="alternate"`,
		`</api/v1/stats>; rel="stats"`,
		`</api/v1/map>; rel="map"`,
	},
	"/api/v1/markers/{id}": {
		`</api/v1/markers>; rel="collection"`,
	},
	"/api/v1/map": {
		`</api/v1/map/styles>; rel="styles"`,
		`</api/v1/map.png>; rel="snapshot"`,
	},
	"/api/v1/stats": {
		`</api/v1/markers>; rel="markers"`,
		`</api/v1/report.pdf>; rel="report"`,
	},
	"/api/v1/import/{kind}": {
		`</api/v1/markers>; rel="markers"`,
	},
	"/api/v1/tables": {
		`</api/v1/query>; rel="query"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
