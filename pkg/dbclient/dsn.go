package dbclient

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wisbric/ai-shell/internal/apperr"
)

// ParsedDSN is the result of classifying and validating a connection
// string before handing it to a driver-specific Connect.
type ParsedDSN struct {
	Kind Kind
	Raw  string
	URL  *url.URL
}

// ParseDSN determines which backend a connection string targets from its
// scheme and validates that it parses as a URL. SQLite is the one
// exception: a bare filesystem path (or "file:" scheme) with no host.
func ParseDSN(dsn string) (*ParsedDSN, error) {
	if dsn == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "dbclient.parse_dsn", "DSN must not be empty")
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "dbclient.parse_dsn", "malformed DSN", err)
	}

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return &ParsedDSN{Kind: KindPostgres, Raw: dsn, URL: u}, nil
	case strings.HasPrefix(dsn, "mysql://"):
		return &ParsedDSN{Kind: KindMySQL, Raw: dsn, URL: u}, nil
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return &ParsedDSN{Kind: KindMongo, Raw: dsn, URL: u}, nil
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return &ParsedDSN{Kind: KindRedis, Raw: dsn, URL: u}, nil
	case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "file:"), u.Scheme == "":
		return &ParsedDSN{Kind: KindSQLite, Raw: dsn, URL: u}, nil
	default:
		return nil, apperr.New(apperr.KindInvalidInput, "dbclient.parse_dsn", fmt.Sprintf("unrecognised DSN scheme %q", u.Scheme))
	}
}

// mysqlDSN strips the scheme wrapper that ParseDSN requires but that
// go-sql-driver/mysql's own DSN grammar does not expect.
func mysqlDSN(raw string) string {
	return strings.TrimPrefix(raw, "mysql://")
}

// sqlitePath extracts the filesystem path from a sqlite:// or file: DSN,
// or returns the raw string unchanged if it was already a bare path.
func sqlitePath(raw string) string {
	raw = strings.TrimPrefix(raw, "sqlite://")
	raw = strings.TrimPrefix(raw, "file:")
	return raw
}
