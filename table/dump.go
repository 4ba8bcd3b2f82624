package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Dump writes the cluster as a JSON document: an ordered mapping from
// persistent table name to an array of row objects whose keys are the
// table's field names. Tables without a schema descriptor are in-memory
// only and skipped.
func (c *Cluster) Dump(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, name := range c.order {
		t := c.tables[name]
		if t.schema == nil {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(t.schema.Name)
		buf.Write(key)
		buf.WriteByte(':')
		if err := writeRows(&buf, t); err != nil {
			return err
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return fmt.Errorf("indent dump: %w", err)
	}
	out.WriteByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}

// writeRows serializes rows keeping the field declaration order, which
// encoding/json map marshalling would not.
func writeRows(buf *bytes.Buffer, t *Table) error {
	buf.WriteByte('[')
	for i, row := range t.rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for k, f := range t.fields {
			if k > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(f)
			buf.Write(key)
			buf.WriteByte(':')
			val, err := json.Marshal(row.values[k])
			if err != nil {
				return fmt.Errorf("table %s: marshal field %s: %w", t.name, f, err)
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return nil
}

// LoadDump reads a JSON document produced by Dump into the cluster. Rows
// are appended to the tables whose schema name matches the top-level keys;
// unknown tables and unknown row fields are ignored.
func (c *Cluster) LoadDump(r io.Reader) error {
	var doc map[string][]map[string]any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode dump: %w", err)
	}
	byReal := make(map[string]*Table, len(c.tables))
	for _, t := range c.tables {
		if t.schema != nil {
			byReal[t.schema.Name] = t
		}
	}
	for name, rows := range doc {
		t, ok := byReal[name]
		if !ok {
			continue
		}
		for _, keyed := range rows {
			t.Add(nil, keyed)
		}
	}
	return nil
}
