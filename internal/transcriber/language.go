package transcriber

import (
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"golang.org/x/text/language"
)

// NormalizeLanguage turns a BCP 47 hint such as "en-US" into the base code
// whisper expects ("en"). Empty and "auto" mean detect.
func NormalizeLanguage(hint string) (string, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" || strings.EqualFold(hint, "auto") {
		return "auto", nil
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return "", apperr.Config("whisper.language", fmt.Sprintf("invalid language %q", hint))
	}
	base, conf := tag.Base()
	if conf == language.No || tag == language.Und {
		return "", apperr.Config("whisper.language", fmt.Sprintf("unknown language %q", hint))
	}
	return base.String(), nil
}
