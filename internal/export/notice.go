package export

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const failureKey = "export.failed"

var noticeLanguages = []language.Tag{language.English, language.Arabic, language.French}

var notices = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	_ = b.SetString(language.English, failureKey, "Something went wrong while creating the PDF. Please try again.")
	_ = b.SetString(language.Arabic, failureKey, "حدث خطأ أثناء إنشاء ملف PDF. يرجى المحاولة مرة أخرى.")
	_ = b.SetString(language.French, failureKey, "Une erreur est survenue lors de la création du PDF. Veuillez réessayer.")
	return b
}()

var noticeMatcher = language.NewMatcher(noticeLanguages)

// FailureNotice returns the message shown to the user when an export fails, in the
// supported language closest to locale.
func FailureNotice(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	_, idx, _ := noticeMatcher.Match(tag)
	p := message.NewPrinter(noticeLanguages[idx], message.Catalog(notices))
	return p.Sprintf(failureKey)
}

var whitespace = regexp.MustCompile(`\s+`)

// Filename derives the PDF file name from a worksheet title.
func Filename(title string) string {
	base := cases.Lower(language.Und).String(strings.TrimSpace(title))
	base = whitespace.ReplaceAllString(base, "-")
	base = strings.NewReplacer("/", "-", "\\", "-").Replace(base)
	if base == "" {
		base = "worksheet"
	}
	return base + ".pdf"
}
