package db

// Config carries the connection settings consumed by Open and Dialect.
// The application maps its environment config into this struct, so
// this package stays independent of how settings are loaded.
type Config struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}
