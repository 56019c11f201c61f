package lifecycle

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/markup"
)

// ActionRemoveMedia names the editor callback bound to delete buttons.
const ActionRemoveMedia = "remove-media"

// Fragment returns the markup inserted into the editor for an uploaded
// asset. Besides the visible element it carries the backup attributes the
// full view uses to rebuild playback.
func Fragment(ref core.MediaReference, base string, prefixes assets.Prefixes) string {
	abs := prefixes.Absolutize(ref.URL, base)
	var n *html.Node
	switch ref.Kind {
	case core.KindVideo:
		n = videoFragment(ref, abs)
	case core.KindAudio:
		n = markup.Append(
			markup.Element("audio", "controls", ""),
			sourceNode(abs, ref.MimeType),
		)
	case core.KindImage:
		n = markup.Element("img", "src", abs, "alt", ref.DisplayName)
	default:
		n = fileFragment(ref)
	}
	if ref.StorageKey != "" {
		markup.SetAttr(n, "data-storage-key", ref.StorageKey)
	}
	return markup.Render(n)
}

func sourceNode(src, mimeType string) *html.Node {
	s := markup.Element("source", "src", src)
	if mimeType != "" {
		markup.SetAttr(s, "type", mimeType)
	}
	return s
}

func videoFragment(ref core.MediaReference, abs string) *html.Node {
	return markup.Append(
		markup.Element("figure",
			"class", markup.ClassVideoContainer,
			"contenteditable", "false",
			"data-video-url", ref.URL,
			"data-video-type", ref.MimeType,
		),
		markup.Append(
			markup.Element("video", "controls", "", "width", "100%"),
			sourceNode(abs, ref.MimeType),
			markup.Text("Your browser does not support the video tag."),
		),
		markup.Append(
			markup.Element("div", "class", "editor-only-control"),
			markup.Append(
				markup.Element("button",
					"type", "button",
					"class", "video-delete-btn",
					"data-video-url", ref.URL,
					"data-action", ActionRemoveMedia,
				),
				markup.Text("×"),
			),
		),
	)
}

func fileFragment(ref core.MediaReference) *html.Node {
	bytes := max(ref.SizeBytes, 0)
	size := humanize.Bytes(uint64(bytes))
	fileType := ref.FileType
	if fileType == "" {
		fileType = assets.FileType(ref.DisplayName)
	}
	return markup.Append(
		markup.Element("div",
			"class", strings.Join([]string{"mceNonEditable", markup.ClassFileAttachment}, " "),
			"data-file-url", ref.URL,
			"data-file-name", ref.DisplayName,
			"data-file-size", size,
			"data-file-bytes", strconv.FormatInt(bytes, 10),
			"data-file-type", fileType,
		),
		markup.Append(markup.Element("div", "class", "file-icon"), markup.Text(assets.Icon(fileType))),
		markup.Append(
			markup.Element("div", "class", "file-info"),
			markup.Append(markup.Element("div", "class", markup.ClassFileName), markup.Text(ref.DisplayName)),
			markup.Append(markup.Element("div", "class", "file-size"), markup.Text(size)),
		),
		markup.Append(
			markup.Element("div", "class", markup.ClassFileActions),
			markup.Append(
				markup.Element("button",
					"class", "remove-btn editor-only",
					"type", "button",
					"data-file-url", ref.URL,
					"data-action", ActionRemoveMedia,
				),
				markup.Text("Remove"),
			),
		),
	)
}
