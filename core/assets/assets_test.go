package assets

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gaurav-prasanna/postpipe/core"
)

func TestNewPrefixes(t *testing.T) {
	assert.Equal(t, Prefixes{"/uploads/"}, NewPrefixes())
	assert.Equal(t, Prefixes{"/uploads/"}, NewPrefixes("", " "))
	assert.Equal(t, Prefixes{"/media/", "/uploads/"}, NewPrefixes("media", "/uploads"))
}

func TestStorageKey(t *testing.T) {
	ps := NewPrefixes()
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"absolute", "https://host/uploads/42/doc.pdf", "42/doc.pdf"},
		{"root relative", "/uploads/7/b.mp4", "7/b.mp4"},
		{"query dropped", "https://host/uploads/7/b.mp4?t=3", "7/b.mp4"},
		{"escaped", "https://host/uploads/7/my%20file.pdf", "7/my file.pdf"},
		{"outside prefix", "https://host/static/logo.png", ""},
		{"external", "https://youtube.com/embed/xyz", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ps.StorageKey(tt.url))
		})
	}
}

func TestKeyFor(t *testing.T) {
	ps := NewPrefixes()
	assert.Equal(t, "42/doc.pdf", ps.KeyFor("https://host/uploads/42/doc.pdf"))
	assert.Equal(t, "42/doc.pdf", ps.KeyFor("42/doc.pdf"))
	assert.Equal(t, "", ps.KeyFor("/static/doc.pdf"))
	assert.Equal(t, "", ps.KeyFor("https://host/static/doc.pdf"))
	assert.Equal(t, "", ps.KeyFor("  "))
}

func TestAbsolutize(t *testing.T) {
	ps := NewPrefixes()
	base := "https://cdn.example.com/"

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"root relative", "/uploads/7/b.mp4", "https://cdn.example.com/uploads/7/b.mp4"},
		{"already absolute", "https://cdn.example.com/uploads/7/b.mp4", "https://cdn.example.com/uploads/7/b.mp4"},
		{"other host", "https://other.org/uploads/7/b.mp4", "https://other.org/uploads/7/b.mp4"},
		{"protocol relative", "//evil.org/uploads/x.png", "//evil.org/uploads/x.png"},
		{"outside prefix", "/static/x.png", "/static/x.png"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := ps.Absolutize(tt.in, base)
			assert.Equal(t, tt.want, once)
			assert.Equal(t, once, ps.Absolutize(once, base), "idempotent")
		})
	}

	assert.Equal(t, "/uploads/7/b.mp4", ps.Absolutize("/uploads/7/b.mp4", ""), "no base leaves URLs alone")
}

func TestPublicURL(t *testing.T) {
	ps := NewPrefixes()
	assert.Equal(t, "/uploads/42/doc.pdf", ps.PublicURL("", "42/doc.pdf"))
	assert.Equal(t, "https://cdn.example.com/uploads/42/doc.pdf", ps.PublicURL("https://cdn.example.com/", "/42/doc.pdf"))
	assert.Equal(t, "42/doc.pdf", ps.StorageKey(ps.PublicURL("https://h", "42/doc.pdf")))
}

func TestExtAndBaseName(t *testing.T) {
	assert.Equal(t, "pdf", Ext("https://host/uploads/1/Report.PDF?dl=1"))
	assert.Equal(t, "", Ext("https://host/uploads/1/README"))
	assert.Equal(t, "Report.PDF", BaseName("https://host/uploads/1/Report.PDF?dl=1"))
	assert.Equal(t, "", BaseName(""))
}

func TestFileTypes(t *testing.T) {
	tests := []struct {
		name        string
		kind        core.MediaKind
		fileType    string
		previewable bool
	}{
		{"photo.JPG", core.KindImage, FileTypeImage, true},
		{"clip.webm", core.KindVideo, FileTypeVideo, true},
		{"song.mp3", core.KindAudio, FileTypeAudio, false},
		{"notes.pdf", core.KindFile, FileTypePDF, true},
		{"essay.docx", core.KindFile, FileTypeWord, false},
		{"grades.xlsx", core.KindFile, FileTypeExcel, false},
		{"deck.pptx", core.KindFile, FileTypePowerPoint, false},
		{"code.zip", core.KindFile, FileTypeArchive, false},
		{"readme.md", core.KindFile, FileTypeText, true},
		{"binary.exe", core.KindNone, FileTypeOther, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindForExt(Ext(tt.name)))
			assert.Equal(t, tt.fileType, FileType(tt.name))
			assert.Equal(t, tt.previewable, Previewable(FileType(tt.name)))
			assert.NotEmpty(t, Icon(FileType(tt.name)))
		})
	}
	assert.True(t, IsDocumentExt("pdf"))
	assert.False(t, IsDocumentExt("png"))
}

func TestKeySet(t *testing.T) {
	s := NewKeySet("b", "a", "", "b", "c")
	assert.Equal(t, []string{"b", "a", "c"}, s.All())
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has("a"))

	s.Remove("a")
	s.Remove("missing")
	assert.Equal(t, []string{"b", "c"}, s.All())
	assert.False(t, s.Has("a"))

	other := NewKeySet("c", "d")
	assert.Equal(t, []string{"b"}, s.Minus(other))
	assert.Equal(t, []string{"b", "c"}, s.Minus(nil))

	all := s.All()
	all[0] = "mutated"
	assert.Equal(t, "b", s.All()[0], "All returns a copy")
}

func TestNewKey(t *testing.T) {
	uuidRe := `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

	assert.Regexp(t, regexp.MustCompile(`^42/`+uuidRe+`-my_essay.docx$`), NewKey("42", "my essay.docx"))
	assert.Regexp(t, regexp.MustCompile(`^`+uuidRe+`-a.png$`), NewKey("", "a.png"))
	assert.Regexp(t, regexp.MustCompile(`^7/`+uuidRe+`$`), NewKey("7", ""))
	assert.NotEqual(t, NewKey("1", "a.png"), NewKey("1", "a.png"))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "passwd", SanitizeName("../../etc/passwd"))
	assert.Equal(t, "a_b.pdf", SanitizeName(`C:\Users\me\a b.pdf`))
	assert.Equal(t, "hidden", SanitizeName(".hidden"))
	assert.Equal(t, "", SanitizeName(""))
}
