package publish

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"replytree/internal/model"
	"replytree/internal/tree"
)

type RenderOptions struct {
	// IncludeHidden prints the bodies of hidden entries. Otherwise they show as tombstones so
	// their replies keep their place.
	IncludeHidden bool
}

// RenderThreadMarkdown renders th as one document: a meta block, an outline of the reply tree
// in render order, then every entry in full.
func RenderThreadMarkdown(th model.Thread, entries []model.Entry, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(th.Title)
	if title == "" {
		title = th.ID
	}
	writeLn("# " + title)
	writeLn("")

	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + th.ID)
	if strings.TrimSpace(th.AuthorID) != "" {
		writeLn("- Author: " + strings.TrimSpace(th.AuthorID))
	}
	writeLn(fmt.Sprintf("- Version: %d", th.Version))
	if th.Hidden {
		writeLn("- Hidden: true")
	}
	writeLn("- Created: " + th.CreatedAt.UTC().Format(time.RFC3339))
	writeLn("- Updated: " + th.UpdatedAt.UTC().Format(time.RFC3339))

	x := tree.Build(entries)
	rows := x.Rows()
	if len(rows) == 0 {
		return buf.String()
	}

	writeLn("")
	writeLn("## Outline")
	writeLn("")
	for _, r := range rows {
		renderOutlineLine(&buf, r, opt)
	}

	writeLn("")
	writeLn("## Entries")
	for _, r := range rows {
		e := r.Entry
		writeLn("")
		writeLn("### " + e.ID + " (" + e.CreatedAt.UTC().Format(time.RFC3339) + ")")
		writeLn("")
		if strings.TrimSpace(e.AuthorID) != "" {
			writeLn("- Author: " + strings.TrimSpace(e.AuthorID))
		}
		if p := e.ParentID(); p != "" {
			writeLn("- Reply to: " + p)
		}
		writeLn(fmt.Sprintf("- Depth: %d", r.Depth))
		if r.Cyclic {
			writeLn("- Cyclic: true")
		}
		writeLn("")
		writeLn(entryBody(e, opt))
	}
	return buf.String()
}

func renderOutlineLine(buf *bytes.Buffer, r tree.Row, opt RenderOptions) {
	prefix := strings.Repeat("  ", max(r.Depth-1, 0))
	summary := firstLine(entryBody(r.Entry, opt))
	fmt.Fprintf(buf, "%s- [%s](#%s) %s\n", prefix, r.Entry.ID, r.Entry.ID, summary)
}

func entryBody(e model.Entry, opt RenderOptions) string {
	if e.Hidden && !opt.IncludeHidden {
		return "_[hidden]_"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = "(empty)"
	}
	if e.Hidden {
		body = "_(hidden)_ " + body
	}
	return body
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
