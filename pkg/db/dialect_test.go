package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDialect(t *testing.T) {
	d, err := Dialect(Config{Type: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.Equal(t, "sqlite", d.Name())

	d, err = Dialect(Config{Type: "postgres", Host: "localhost", Port: "5432", Name: "app", User: "app", SSLMode: "disable"})
	require.NoError(t, err)
	require.Equal(t, "postgres", d.Name())

	d, err = Dialect(Config{Type: "mysql", Host: "localhost", Port: "3306", Name: "app", User: "app"})
	require.NoError(t, err)
	require.Equal(t, "mysql", d.Name())

	_, err = Dialect(Config{Type: "oracle"})
	require.Error(t, err)
}
