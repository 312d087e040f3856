package ics

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// volatileProps are per-serialization bookkeeping fields that change on
// every publisher refresh without the event itself changing.
var volatileProps = map[string]struct{}{
	"DTSTAMP":       {},
	"CREATED":       {},
	"LAST-MODIFIED": {},
	"SEQUENCE":      {},
}

// Digest computes an order-independent content hash over all raw events.
// Two runs see the same digest iff the meaningful event content is the
// same, regardless of calendar ordering or volatile bookkeeping fields.
func Digest(events []RawEvent) string {
	type item struct {
		name string
		sum  string
		data []byte
	}

	items := make([]item, 0, len(events))
	for _, ev := range events {
		data := canonicalBytes(ev.Component)
		sum := sha256.Sum256(data)
		items = append(items, item{
			name: ev.Calendar,
			sum:  hex.EncodeToString(sum[:]),
			data: data,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].name != items[j].name {
			return items[i].name < items[j].name
		}
		return items[i].sum < items[j].sum
	})

	h := sha256.New()
	for _, it := range items {
		h.Write([]byte(it.name))
		h.Write(it.data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Anchor identifies a requested date range for change detection.
func Anchor(dates []time.Time) string {
	if len(dates) == 0 {
		return ""
	}
	first := dates[0].Format("2006-01-02")
	last := dates[len(dates)-1].Format("2006-01-02")
	return first + ":" + last
}

// canonicalBytes serializes a VEVENT to a deterministic byte form with the
// volatile properties stripped. Property order is kept as parsed; parameters
// are emitted sorted so param map iteration cannot perturb the digest.
func canonicalBytes(ve *ical.VEvent) []byte {
	var buf bytes.Buffer
	buf.WriteString("BEGIN:VEVENT\n")
	for _, p := range ve.Properties {
		token := strings.ToUpper(p.IANAToken)
		if _, skip := volatileProps[token]; skip {
			continue
		}
		buf.WriteString(token)

		keys := make([]string, 0, len(p.ICalParameters))
		for k := range p.ICalParameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			buf.WriteString(";")
			buf.WriteString(k)
			buf.WriteString("=")
			buf.WriteString(strings.Join(p.ICalParameters[k], ","))
		}

		buf.WriteString(":")
		buf.WriteString(p.Value)
		buf.WriteString("\n")
	}
	buf.WriteString("END:VEVENT\n")
	return buf.Bytes()
}
