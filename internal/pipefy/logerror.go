package pipefy

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// dateLayouts approximates how each locale prints a date and time. Keys are
// lowercase full tags or bare languages.
var dateLayouts = map[string]string{
	"en":    "1/2/2006, 3:04:05 PM",
	"en-gb": "02/01/2006, 15:04:05",
	"es":    "2/1/2006, 15:04:05",
	"pt":    "02/01/2006, 15:04:05",
	"it":    "2/1/2006, 15:04:05",
	"fr":    "02/01/2006 15:04:05",
	"de":    "2.1.2006, 15:04:05",
}

const fallbackDateLayout = "2006-01-02 15:04:05"

// localeLayout picks the layout for a BCP 47 tag, trying the full tag and
// then its language.
func localeLayout(locale string) string {
	tag := strings.ToLower(strings.ReplaceAll(locale, "_", "-"))
	if layout, ok := dateLayouts[tag]; ok {
		return layout
	}
	lang, _, _ := strings.Cut(tag, "-")
	if layout, ok := dateLayouts[lang]; ok {
		return layout
	}
	return fallbackDateLayout
}

// formatDate renders t in the client's zone and locale.
func (c *Client) formatDate(t time.Time) string {
	return t.In(c.location).Format(localeLayout(c.locale))
}

// LogError writes a row with error_code, message, date and function to the
// configured log table and returns the record id. Without a log table it
// does nothing and returns "".
func (c *Client) LogError(ctx context.Context, message string, code int, function string) (string, error) {
	if c.logTable == "" {
		return "", nil
	}
	return c.CreateTableRecord(ctx, c.logTable, []RecordField{
		{ID: "error_code", Value: strconv.Itoa(code)},
		{ID: "message", Value: message},
		{ID: "date", Value: c.formatDate(c.now())},
		{ID: "function", Value: function},
	})
}
