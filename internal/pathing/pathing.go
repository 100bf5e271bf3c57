// Package pathing centralizes path construction for channel and video
// directories. Pure path algebra, no I/O: inputs are assumed validated
// upstream and no sanitization happens here.
package pathing

import (
	"path/filepath"
	"regexp"
	"strings"

	"plextube/internal/domain/consts"
	"plextube/internal/models"
)

// yt-dlp output templates. The channel segment falls back through uploader,
// channel, then uploader_id.
const (
	channelTemplate     = "%(uploader,channel,uploader_id)s"
	videoFolderTemplate = channelTemplate + " - %(title)s - %(id)s"
	videoFileTemplate   = channelTemplate + " - %(title)s  [%(id)s].%(ext)s"
)

var (
	youtubeIDPattern        = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	youtubeIDBracketPattern = regexp.MustCompile(`\[([a-zA-Z0-9_-]{11})\]`)
	youtubeIDDashPattern    = regexp.MustCompile(` - ([a-zA-Z0-9_-]{11})$`)
)

// ResolveEffectiveSubfolder resolves a raw stored sub_folder value against
// the global default, returning the subfolder actually used on disk (without
// the "__" prefix) or "" for the root directory.
func ResolveEffectiveSubfolder(stored string, hasValue bool, globalDefault string) string {
	sub := models.ParseSubfolder(stored, hasValue)
	return EffectiveSubfolder(sub, globalDefault)
}

// EffectiveSubfolder is the domain-typed form of ResolveEffectiveSubfolder.
func EffectiveSubfolder(sub models.Subfolder, globalDefault string) string {
	switch sub.Kind {
	case models.SubfolderInheritGlobal:
		return strings.TrimSpace(globalDefault)
	case models.SubfolderNamed:
		return strings.TrimSpace(sub.Name)
	default:
		return ""
	}
}

// SubfolderSegment prefixes a subfolder name for filesystem use. Returns ""
// for empty names.
func SubfolderSegment(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return consts.SubfolderPrefix + name
}

// IsSubfolderDir reports whether a directory name is a prefixed subfolder.
func IsSubfolderDir(dirName string) bool {
	return dirName != "" && strings.HasPrefix(dirName, consts.SubfolderPrefix)
}

// ExtractSubfolderName strips the subfolder prefix from a directory name,
// returning "" when the name is not a subfolder directory.
func ExtractSubfolderName(dirName string) string {
	if !IsSubfolderDir(dirName) {
		return ""
	}
	return dirName[len(consts.SubfolderPrefix):]
}

// BuildChannelPath returns the absolute channel directory for the given base
// directory, effective subfolder ("" for root), and channel folder name.
func BuildChannelPath(baseDir, effectiveSubfolder, channelFolderName string) string {
	if seg := SubfolderSegment(effectiveSubfolder); seg != "" {
		return filepath.Join(baseDir, seg, channelFolderName)
	}
	return filepath.Join(baseDir, channelFolderName)
}

// BuildVideoPath returns the directory for a single video under its channel.
func BuildVideoPath(baseDir, effectiveSubfolder, channelFolderName, videoFolderName string) string {
	return filepath.Join(BuildChannelPath(baseDir, effectiveSubfolder, channelFolderName), videoFolderName)
}

// BuildOutputTemplate builds the yt-dlp -o template rooted at baseDir.
func BuildOutputTemplate(baseDir, effectiveSubfolder string) string {
	if seg := SubfolderSegment(effectiveSubfolder); seg != "" {
		return filepath.Join(baseDir, seg, channelTemplate, videoFolderTemplate, videoFileTemplate)
	}
	return filepath.Join(baseDir, channelTemplate, videoFolderTemplate, videoFileTemplate)
}

// BuildThumbnailTemplate builds the yt-dlp thumbnail output template.
func BuildThumbnailTemplate(baseDir, effectiveSubfolder string) string {
	if seg := SubfolderSegment(effectiveSubfolder); seg != "" {
		return filepath.Join(baseDir, seg, channelTemplate, videoFolderTemplate, "poster")
	}
	return filepath.Join(baseDir, channelTemplate, videoFolderTemplate, "poster")
}

// CalculateRelocatedPath swaps the oldBase prefix of absolutePath for
// newBase. Returns "" when absolutePath does not start with oldBase,
// signalling "not applicable, leave untouched".
func CalculateRelocatedPath(oldBase, newBase, absolutePath string) string {
	if absolutePath == "" || !strings.HasPrefix(absolutePath, oldBase) {
		return ""
	}
	return newBase + absolutePath[len(oldBase):]
}

// ExtractYoutubeID pulls a video ID out of a file path, trying the
// "[VideoID].ext" filename pattern first, then a " - VideoID" suffix on the
// parent directory name.
func ExtractYoutubeID(filePath string) string {
	filename := filepath.Base(filePath)
	if m := youtubeIDBracketPattern.FindStringSubmatch(filename); m != nil {
		return m[1]
	}
	dirname := filepath.Base(filepath.Dir(filePath))
	if m := youtubeIDDashPattern.FindStringSubmatch(dirname); m != nil {
		return m[1]
	}
	return ""
}

// IsValidYoutubeID reports whether s looks like an 11-char YouTube video ID.
func IsValidYoutubeID(s string) bool {
	return youtubeIDPattern.MatchString(s)
}
