package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectByType(t *testing.T) {
	for _, typ := range []string{"postgres", "mysql", "sqlite"} {
		t.Run(typ, func(t *testing.T) {
			d, err := Dialect(Config{Type: typ, Host: "localhost", Port: "5432", Name: "coffee"})
			require.NoError(t, err)
			assert.Equal(t, typ, d.Name())
		})
	}
}

func TestDialectRejectsUnknownType(t *testing.T) {
	_, err := Dialect(Config{Type: "oracle"})
	require.Error(t, err)
}

func TestConfigDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "url wins",
			cfg:  Config{Type: "postgres", URL: " postgres://coffee:secret@db:5432/coffee ", Host: "ignored"},
			want: "postgres://coffee:secret@db:5432/coffee",
		},
		{
			name: "postgres fields",
			cfg:  Config{Type: "postgres", Host: "db", Port: "5432", Name: "coffee", User: "u", Password: "p"},
			want: "host=db user=u password=p dbname=coffee port=5432 sslmode=disable TimeZone=UTC",
		},
		{
			name: "mysql fields",
			cfg:  Config{Type: "mysql", Host: "db", Port: "3306", Name: "coffee", User: "u", Password: "p"},
			want: "u:p@tcp(db:3306)/coffee?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name: "sqlite default file",
			cfg:  Config{Type: "sqlite"},
			want: "brewlink.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}
