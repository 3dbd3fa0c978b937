// Package delimited reads item records from and writes result rows to
// delimited text files.
package delimited

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// Dialect describes the separator and line ending of a delimited file.
type Dialect struct {
	Name  string
	Comma rune
	CRLF  bool
}

// Dialect presets.
var (
	// ExcelTab is tab separated with CRLF line endings. It is the default.
	ExcelTab = Dialect{Name: "excel-tab", Comma: '\t', CRLF: true}
	// Excel is comma separated with CRLF line endings.
	Excel = Dialect{Name: "excel", Comma: ',', CRLF: true}
	// Unix is comma separated with LF line endings.
	Unix = Dialect{Name: "unix", Comma: ',', CRLF: false}
)

// DefaultDialect is used when no dialect is configured.
const DefaultDialect = "excel-tab"

var dialects = map[string]Dialect{
	ExcelTab.Name: ExcelTab,
	Excel.Name:    Excel,
	Unix.Name:     Unix,
	"tsv":         ExcelTab,
	"csv":         Excel,
}

// LookupDialect returns the named dialect. The empty name selects excel-tab.
func LookupDialect(name string) (Dialect, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultDialect
	}
	d, ok := dialects[name]
	if !ok {
		return Dialect{}, fmt.Errorf("%w: unknown dialect %q (known: %s)",
			classify.ErrConfiguration, name, strings.Join(DialectNames(), ", "))
	}
	return d, nil
}

// DialectNames lists the accepted dialect names, aliases included.
func DialectNames() []string {
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
