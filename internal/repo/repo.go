// Package repo provides database stores for channels, videos, and download
// rows.
package repo

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Stores bundles the per-table stores over one database handle.
type Stores struct {
	Channels  *ChannelStore
	Videos    *VideoStore
	Downloads *DownloadStore
}

// InitStores returns all stores with the injected database.
func InitStores(db *sql.DB) *Stores {
	return &Stores{
		Channels:  GetChannelStore(db),
		Videos:    GetVideoStore(db),
		Downloads: GetDownloadStore(db),
	}
}
