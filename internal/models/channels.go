// Package models holds structs for modelling data, e.g. Channel data, Video data, etc.
package models

import (
	"strings"
	"time"

	"plextube/internal/domain/consts"
)

// SubfolderKind enumerates the tri-state subfolder setting for a channel.
type SubfolderKind int

const (
	// SubfolderRoot places the channel folder directly under the base
	// download directory.
	SubfolderRoot SubfolderKind = iota
	// SubfolderNamed places the channel folder under a named subfolder.
	SubfolderNamed
	// SubfolderInheritGlobal defers to the global default subfolder.
	SubfolderInheritGlobal
)

// Subfolder is the domain representation of a channel's subfolder setting.
// The sentinel strings used by the persistence layer never appear outside
// ParseSubfolder/Stored.
type Subfolder struct {
	Kind SubfolderKind
	Name string // set only for SubfolderNamed
}

// ParseSubfolder converts a raw stored sub_folder value into its domain form.
// hasValue is false when the column is NULL.
func ParseSubfolder(raw string, hasValue bool) Subfolder {
	if !hasValue {
		return Subfolder{Kind: SubfolderRoot}
	}
	switch strings.TrimSpace(raw) {
	case consts.GlobalDefaultSentinel:
		return Subfolder{Kind: SubfolderInheritGlobal}
	case consts.RootSentinel, "":
		return Subfolder{Kind: SubfolderRoot}
	}
	return Subfolder{Kind: SubfolderNamed, Name: strings.TrimSpace(raw)}
}

// Stored returns the persistence-layer encoding. hasValue is false when the
// setting should be stored as NULL.
func (s Subfolder) Stored() (raw string, hasValue bool) {
	switch s.Kind {
	case SubfolderInheritGlobal:
		return consts.GlobalDefaultSentinel, true
	case SubfolderNamed:
		return s.Name, true
	default:
		return "", false
	}
}

// Channel is the top-level model for a tracked channel.
type Channel struct {
	ID         int64     `db:"id"`
	ChannelID  string    `db:"channel_id"`
	Uploader   string    `db:"uploader"`
	FolderName string    `db:"folder_name"`
	SubFolder  Subfolder `db:"sub_folder"`

	// Per-channel overrides; zero values mean "inherit global default".
	VideoQuality     string `db:"video_quality"`
	MinDuration      int    `db:"min_duration"`
	MaxDuration      int    `db:"max_duration"`
	TitleFilterRegex string `db:"title_filter_regex"`
	DefaultRating    string `db:"default_rating"`
	AutoDownloadTabs string `db:"auto_download_enabled_tabs"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DiskFolderName returns the folder name used on the filesystem, preferring
// the yt-dlp-sanitized folder_name over the raw uploader string.
func (c *Channel) DiskFolderName() string {
	if c.FolderName != "" {
		return c.FolderName
	}
	return c.Uploader
}

// ChannelSettings is the settings view returned to API callers.
type ChannelSettings struct {
	ChannelID        string  `json:"channel_id"`
	Uploader         string  `json:"uploader"`
	SubFolder        *string `json:"sub_folder"`
	VideoQuality     *string `json:"video_quality"`
	MinDuration      *int    `json:"min_duration"`
	MaxDuration      *int    `json:"max_duration"`
	TitleFilterRegex *string `json:"title_filter_regex"`
	DefaultRating    *string `json:"default_rating"`
}

// OptString is a patch field: Set reports whether the caller provided the
// field at all, Null whether an explicit null was provided.
type OptString struct {
	Set   bool
	Null  bool
	Value string
}

// OptInt is the integer counterpart of OptString.
type OptInt struct {
	Set   bool
	Null  bool
	Value int
}

// SettingsPatch carries a partial channel-settings update. Unset fields are
// left untouched.
type SettingsPatch struct {
	SubFolder        OptString
	VideoQuality     OptString
	MinDuration      OptInt
	MaxDuration      OptInt
	TitleFilterRegex OptString
	DefaultRating    OptString
}

// Empty reports whether the patch carries no fields at all.
func (p SettingsPatch) Empty() bool {
	return !p.SubFolder.Set && !p.VideoQuality.Set && !p.MinDuration.Set &&
		!p.MaxDuration.Set && !p.TitleFilterRegex.Set && !p.DefaultRating.Set
}
