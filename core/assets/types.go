package assets

import "github.com/gaurav-prasanna/postpipe/core"

// FileType hints for attachments.
const (
	FileTypeImage      = "image"
	FileTypeVideo      = "video"
	FileTypeAudio      = "audio"
	FileTypePDF        = "pdf"
	FileTypeText       = "text"
	FileTypeWord       = "word"
	FileTypeExcel      = "excel"
	FileTypePowerPoint = "powerpoint"
	FileTypeArchive    = "archive"
	FileTypeOther      = "other"
)

// extension → (kind, file type hint)
var extensionTable = map[string]struct {
	kind     core.MediaKind
	fileType string
}{
	"jpg": {core.KindImage, FileTypeImage}, "jpeg": {core.KindImage, FileTypeImage},
	"png": {core.KindImage, FileTypeImage}, "gif": {core.KindImage, FileTypeImage},
	"webp": {core.KindImage, FileTypeImage}, "svg": {core.KindImage, FileTypeImage},

	"mp4": {core.KindVideo, FileTypeVideo}, "webm": {core.KindVideo, FileTypeVideo},
	"ogg": {core.KindVideo, FileTypeVideo}, "mov": {core.KindVideo, FileTypeVideo},

	"mp3": {core.KindAudio, FileTypeAudio}, "wav": {core.KindAudio, FileTypeAudio},
	"m4a": {core.KindAudio, FileTypeAudio}, "aac": {core.KindAudio, FileTypeAudio},
	"flac": {core.KindAudio, FileTypeAudio},

	"pdf": {core.KindFile, FileTypePDF},
	"doc": {core.KindFile, FileTypeWord}, "docx": {core.KindFile, FileTypeWord},
	"xls": {core.KindFile, FileTypeExcel}, "xlsx": {core.KindFile, FileTypeExcel},
	"ppt": {core.KindFile, FileTypePowerPoint}, "pptx": {core.KindFile, FileTypePowerPoint},
	"zip": {core.KindFile, FileTypeArchive}, "tar": {core.KindFile, FileTypeArchive},
	"gz": {core.KindFile, FileTypeArchive},

	"txt": {core.KindFile, FileTypeText}, "md": {core.KindFile, FileTypeText},
	"html": {core.KindFile, FileTypeText}, "css": {core.KindFile, FileTypeText},
	"js": {core.KindFile, FileTypeText}, "json": {core.KindFile, FileTypeText},
	"xml": {core.KindFile, FileTypeText},
}

// KindForExt returns the media kind an extension maps to, or KindNone.
func KindForExt(ext string) core.MediaKind {
	if e, ok := extensionTable[ext]; ok {
		return e.kind
	}
	return core.KindNone
}

// FileType returns the attachment hint for a URL or file name.
func FileType(name string) string {
	if e, ok := extensionTable[Ext(name)]; ok {
		return e.fileType
	}
	return FileTypeOther
}

// IsDocumentExt reports whether ext is an attachment-only extension
// (documents, archives and text files).
func IsDocumentExt(ext string) bool {
	return KindForExt(ext) == core.KindFile
}

// Previewable reports whether a file type can be shown inline.
func Previewable(fileType string) bool {
	switch fileType {
	case FileTypeImage, FileTypeVideo, FileTypePDF, FileTypeText:
		return true
	}
	return false
}

// Icon returns the glyph shown next to an attachment of the given type.
func Icon(fileType string) string {
	switch fileType {
	case FileTypeImage:
		return "🖼️"
	case FileTypeVideo:
		return "🎬"
	case FileTypePDF:
		return "📄"
	case FileTypeText:
		return "📝"
	case FileTypeWord:
		return "📘"
	case FileTypeExcel:
		return "📊"
	case FileTypePowerPoint:
		return "📑"
	default:
		return "📁"
	}
}
