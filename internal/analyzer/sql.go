package analyzer

import (
	"regexp"
	"strings"

	"github.com/petrarca/sas-analyzer/internal/matchers"
)

var (
	procSQLRe     = regexp.MustCompile(`^\s*PROC\s+SQL\b`)
	createTableRe = regexp.MustCompile(`(?i)CREATE\s+(?:OR\s+REPLACE\s+)?TABLE\s+([A-Z_][A-Z0-9_.]*)`)
	dottedNameRe  = regexp.MustCompile(`\b[A-Z_][A-Z0-9_]*(?:\.[A-Z_][A-Z0-9_]*){1,2}\b`)
)

var tableRefRes = []*regexp.Regexp{
	regexp.MustCompile(`FROM\s+([A-Z_][A-Z0-9_.]*)`),
	regexp.MustCompile(`JOIN\s+([A-Z_][A-Z0-9_.]*)`),
	regexp.MustCompile(`INSERT\s+INTO\s+([A-Z_][A-Z0-9_.]*)`),
	regexp.MustCompile(`UPDATE\s+([A-Z_][A-Z0-9_.]*)`),
	regexp.MustCompile(`CREATE\s+(?:OR\s+REPLACE\s+)?(?:TABLE|VIEW)\s+([A-Z_][A-Z0-9_.]*)`),
}

// sqlCollector buffers the body of PROC SQL blocks
type sqlCollector struct {
	open     bool
	start    int
	buffer   []string
	reserved *matchers.Table
}

func (c *sqlCollector) feed(num int, normalized, raw string, res *Result) {
	if procSQLRe.MatchString(normalized) {
		c.open = true
		c.start = num
		c.buffer = c.buffer[:0]
		// a one-line PROC SQL ... QUIT; has nothing to buffer
		if terminatorRe.MatchString(normalized) {
			c.open = false
		}
		return
	}

	if !c.open {
		return
	}

	if terminatorRe.MatchString(normalized) {
		if len(c.buffer) > 0 {
			c.emit(num, res)
		}
		c.open = false
		c.buffer = c.buffer[:0]
		return
	}

	if text := strings.TrimSpace(raw); text != "" {
		c.buffer = append(c.buffer, text)
	}

	for _, name := range dottedNameRe.FindAllString(normalized, -1) {
		if !c.reserved.Contains(name) {
			Append(&res.ExternalTables, name, num)
		}
	}
}

func (c *sqlCollector) emit(end int, res *Result) {
	query := strings.Join(c.buffer, " ")
	q := SQLQuery{
		StartLine:        c.start,
		EndLine:          end,
		Query:            query,
		TablesReferenced: ReferencedTables(query, c.reserved),
	}

	created := CreatedTableNames(query)
	if len(created) > 0 {
		q.CreatedTableName = created[0]
		q.CreatedTableType = TypeOf(created[0])
	}
	for _, name := range created {
		res.CreatedTables = append(res.CreatedTables, CreatedTable{
			Name:   name,
			Type:   TypeOf(name),
			Line:   c.start,
			Origin: OriginSQL,
		})
	}

	res.SQLQueries = append(res.SQLQueries, q)
}

// ReferencedTables returns the table names a query reads or writes without
// duplicates or reserved words. Names are discovered per clause: every FROM
// target first, then JOIN, INSERT INTO, UPDATE and CREATE targets.
func ReferencedTables(query string, reserved *matchers.Table) []string {
	upper := strings.ToUpper(query)

	tables := []string{}
	seen := make(map[string]bool)
	for _, re := range tableRefRes {
		for _, m := range re.FindAllStringSubmatch(upper, -1) {
			name := m[1]
			if seen[name] || reserved.Contains(name) {
				continue
			}
			seen[name] = true
			tables = append(tables, name)
		}
	}
	return tables
}

// CreatedTableNames returns the targets of CREATE [OR REPLACE] TABLE in a query
func CreatedTableNames(query string) []string {
	var names []string
	for _, m := range createTableRe.FindAllStringSubmatch(query, -1) {
		names = append(names, strings.ToUpper(m[1]))
	}
	return names
}

// TypeOf classifies a dataset name. Unqualified names and WORK members are
// temporary, everything else is permanent.
func TypeOf(name string) DatasetType {
	lib, _, qualified := strings.Cut(name, ".")
	if !qualified || lib == "" || strings.EqualFold(lib, "WORK") {
		return Temporary
	}
	return Permanent
}
