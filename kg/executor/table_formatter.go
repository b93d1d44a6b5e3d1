package executor

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/reasongraph/kg"
)

// TableFormatter renders a Relation as a markdown table, decoding ids
// through the dictionary for display.
type TableFormatter struct{}

// NewTableFormatter creates a TableFormatter.
func NewTableFormatter() *TableFormatter { return &TableFormatter{} }

// Format renders rel as a markdown table string.
func (tf *TableFormatter) Format(rel *Relation, dict *kg.Dictionary) string {
	if rel == nil || rel.IsEmpty() {
		return "_Empty relation_"
	}

	tableString := &strings.Builder{}

	alignment := make([]tw.Align, len(rel.Columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(rel.Columns)

	for _, row := range rel.Decode(dict) {
		cells := make([]string, len(rel.Columns))
		for i, col := range rel.Columns {
			cells[i] = row[col]
		}
		table.Append(cells)
	}

	table.Render()
	tableString.WriteString(fmt.Sprintf("\n%s\n", color.HiBlackString("%d rows", rel.Size())))
	return tableString.String()
}

// PrintRelation prints rel to stdout.
func PrintRelation(rel *Relation, dict *kg.Dictionary) {
	fmt.Println(NewTableFormatter().Format(rel, dict))
}
