package db

import (
	"database/sql"
	"fmt"
	"strings"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	// SQLiteDriverName is the project-specific SQLCipher driver with custom SQL functions.
	SQLiteDriverName = "sqlite3_content_e2e"
)

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("casefold", sqliteCasefold, true); err != nil {
				return fmt.Errorf("register casefold SQL function: %w", err)
			}
			return nil
		},
	})
}

// Casefold is the key under which sibling node names are compared.
// SQLite's lower() only folds ASCII, so the same function is exposed to SQL.
func Casefold(name string) string {
	return strings.ToLower(name)
}

func sqliteCasefold(input any) (string, error) {
	switch x := input.(type) {
	case nil:
		return "", nil
	case string:
		return Casefold(x), nil
	case []byte:
		return Casefold(string(x)), nil
	default:
		return "", fmt.Errorf("unsupported casefold input type: %T", input)
	}
}
