package ch

import (
	"os"
	"runtime"
	"strings"

	"namecensus/internal/core/version"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo labels archive writes in system.query_log
// role is the binary (api, cli), tag the component doing the write
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	b := version.Info()
	products := []struct{ Name, Version string }{
		{Name: "namecensus", Version: orUnknown(b.Version)},
		{Name: "role", Version: orUnknown(role)},
		{Name: "tag", Version: orUnknown(tag)},
		{Name: "commit", Version: orUnknown(b.Commit)},
		{Name: "go", Version: runtime.Version()},
		{Name: "host", Version: orUnknown(host)},
	}
	return clickhouse.ClientInfo{Products: products}
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
