package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// defaultSSLMode applies when a URL carries no sslmode option. Local
// postgres rarely has TLS set up; production URLs say so explicitly.
const defaultSSLMode = "disable"

// DatabaseURL is a postgres connection URL broken into its parts.
type DatabaseURL struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Options  map[string]string
}

// ParseDatabaseURL splits a postgres:// (or postgresql://) URL into its
// parts. The port defaults to 5432 and sslmode to disable.
func ParseDatabaseURL(raw string) (*DatabaseURL, error) {
	if raw == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	u, err := url.Parse(strings.Replace(raw, "postgresql://", "postgres://", 1))
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if u.Scheme != "postgres" {
		return nil, fmt.Errorf("database URL scheme %q is not postgres", u.Scheme)
	}

	out := &DatabaseURL{
		Host:     u.Hostname(),
		Port:     5432,
		Database: strings.TrimPrefix(u.Path, "/"),
		SSLMode:  defaultSSLMode,
		Options:  map[string]string{},
	}
	if u.User != nil {
		out.User = u.User.Username()
		out.Password, _ = u.User.Password()
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("database URL port %q: %w", p, err)
		}
		out.Port = port
	}

	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "sslmode" {
			out.SSLMode = values[0]
			continue
		}
		out.Options[key] = values[0]
	}

	return out, nil
}

// DSN renders the URL as a libpq key/value connection string.
func (d *DatabaseURL) DSN() string {
	var b strings.Builder
	fmt.Fprintf(&b, "host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
	for key, value := range d.Options {
		fmt.Fprintf(&b, " %s=%s", key, value)
	}
	return b.String()
}

// String renders the parts back into postgres:// form. The password is
// escaped so URLs survive round-tripping through environment files.
func (d *DatabaseURL) String() string {
	return BuildDatabaseURL(d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// BuildDatabaseURL assembles a postgres:// URL from parts.
func BuildDatabaseURL(host string, port int, user, password, database, sslMode string) string {
	if sslMode == "" {
		sslMode = defaultSSLMode
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		user, url.QueryEscape(password), host, port, database, sslMode)
}
