// Package cli provides shared formatting helpers for the channelguard CLI.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Table wraps text/tabwriter with consistent column-aligned output.
// Headers and a dash divider are written lazily on first Row(), so empty
// tables produce no output.
type Table struct {
	w       *tabwriter.Writer
	headers []string
	written bool
}

// NewTable creates a table with the given column headers, writing to stdout.
func NewTable(headers ...string) *Table {
	return NewTableTo(os.Stdout, headers...)
}

// NewTableTo creates a table writing to w.
func NewTableTo(w io.Writer, headers ...string) *Table {
	return &Table{
		w:       tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers: headers,
	}
}

// Row writes a tab-separated row. On the first call, headers and divider
// are emitted before the row.
func (t *Table) Row(values ...string) {
	if !t.written {
		t.written = true
		fmt.Fprintln(t.w, strings.Join(t.headers, "\t"))
		dividers := make([]string, len(t.headers))
		for i, h := range t.headers {
			dividers[i] = strings.Repeat("-", len(h))
		}
		fmt.Fprintln(t.w, strings.Join(dividers, "\t"))
	}
	fmt.Fprintln(t.w, strings.Join(values, "\t"))
}

// Flush writes any buffered output. If no rows were written, nothing is
// printed.
func (t *Table) Flush() {
	if !t.written {
		return
	}
	t.w.Flush()
}

// KV prints aligned key/value pairs, for summary-style output.
type KV struct {
	w     *tabwriter.Writer
	wrote bool
}

// NewKV creates a key/value printer writing to stdout.
func NewKV() *KV {
	return &KV{w: tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)}
}

// Pair writes one key/value line.
func (k *KV) Pair(key string, value interface{}) {
	k.wrote = true
	fmt.Fprintf(k.w, "%s:\t%v\n", key, value)
}

// Flush writes buffered output.
func (k *KV) Flush() {
	if k.wrote {
		k.w.Flush()
	}
}
