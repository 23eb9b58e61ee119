//go:build swag

package swaggerkit

import docs "namecensus/internal/services/api/docs"

// the docs package is generated by `go tool swag init -g cmd/namecensus-api/main.go -o internal/services/api/docs`
var docReader = func() string { return docs.SwaggerInfo.ReadDoc() }
