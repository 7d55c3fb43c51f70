package naming

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

const (
	PLACEHOLDER_NAME  = "name"
	PLACEHOLDER_COUNT = "count"
)

var placeholderMatcher = regexp.MustCompile(`\{([A-Za-z_]+)\}`)

/**
substitute every {placeholder} in the template that has an entry in `values`.
placeholders without an entry are left as they are, so that a thumbnail pattern can have its {name}
filled in at submission time while keeping {count} for the transcoder to expand
*/
func RenderTemplate(template string, values map[string]string) string {
	if len(values) == 0 {
		return template
	}
	return placeholderMatcher.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		if replacement, haveIt := values[key]; haveIt {
			return replacement
		}
		return match
	})
}

/**
returns the placeholder names used in the template, in the order they appear
*/
func Placeholders(template string) []string {
	matches := placeholderMatcher.FindAllStringSubmatch(template, -1)
	rtn := make([]string, len(matches))
	for i, m := range matches {
		rtn[i] = m[1]
	}
	return rtn
}

/**
check that the template only uses the given placeholders. Returns an error naming the first
unrecognised one
*/
func ValidateTemplate(template string, allowed ...string) error {
	if template == "" {
		return errors.New("template is empty")
	}
	for _, p := range Placeholders(template) {
		known := false
		for _, a := range allowed {
			if p == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("template '%s' uses unknown placeholder {%s}", template, p)
		}
	}
	return nil
}

/**
render an output key template for the given (extension-less) base name.
if useDirectory is set, the result is placed into a folder named after the base name so that every
artifact for one source lands together
*/
func RenderOutputKey(template string, baseName string, useDirectory bool) string {
	rendered := RenderTemplate(template, map[string]string{PLACEHOLDER_NAME: baseName})
	if useDirectory {
		return baseName + "/" + rendered
	}
	return rendered
}

/**
returns the filename truncated before its last '.'.
a filename with no dot, or whose only dot is the leading one, is returned unchanged
*/
func StripExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx <= 0 || strings.LastIndex(filename, "/") > idx {
		return filename
	}
	return filename[:idx]
}

func BaseName(filename string) string {
	if filename == "" {
		return ""
	}
	return path.Base(strings.Replace(filename, "\\", "/", -1))
}

/**
appends ".xtn" to the filename, unless xtn is empty. A leading dot on xtn is tolerated
*/
func WithExtension(filename string, xtn string) string {
	xtn = strings.TrimPrefix(xtn, ".")
	if xtn == "" {
		return filename
	}
	return filename + "." + xtn
}

/**
re-derive the first thumbnail's key from an output's thumbnail pattern.
{name} is the output key's base name without extension and {count} the thumbnail number padded to five digits.
*/
func ThumbnailName(pattern string, outputKey string, number int, xtn string) string {
	rendered := RenderTemplate(pattern, map[string]string{
		PLACEHOLDER_NAME:  StripExtension(BaseName(outputKey)),
		PLACEHOLDER_COUNT: fmt.Sprintf("%05d", number),
	})
	return WithExtension(rendered, xtn)
}

func PlaylistName(name string, xtn string) string {
	return WithExtension(name, xtn)
}
