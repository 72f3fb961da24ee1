// Package xmlexport exporta el libro de movimientos a XML canónico (C14N) con digest SHA-256,
// para archivar o entregar a auditoría un extracto verificable.
package xmlexport

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/Almacen-api/internal/application/ports"
)

// Namespace del documento exportado.
const Namespace = "urn:almacen:ledger:1"

var _ ports.XMLExporter = (*Exporter)(nil)

// Exporter implementa ports.XMLExporter con etree + c14n.
type Exporter struct{}

func NewExporter() *Exporter { return &Exporter{} }

// ExportMovements construye el documento, lo canonicaliza y calcula su digest.
func (e *Exporter) ExportMovements(report *ports.MovementReport) (*ports.LedgerExport, error) {
	raw, err := buildDocument(report).WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("xml: serializar: %w", err)
	}
	canonical, err := canonicalize(raw)
	if err != nil {
		return nil, fmt.Errorf("xml: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return &ports.LedgerExport{Document: canonical, Digest: hex.EncodeToString(sum[:])}, nil
}

func buildDocument(report *ports.MovementReport) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("Ledger")
	root.CreateAttr("xmlns", Namespace)
	root.CreateAttr("generatedAt", report.GeneratedAt.UTC().Format(time.RFC3339))
	root.CreateAttr("count", fmt.Sprint(len(report.Rows)))

	if len(report.Filters) > 0 {
		filters := root.CreateElement("Filters")
		keys := make([]string, 0, len(report.Filters))
		for k := range report.Filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			f := filters.CreateElement("Filter")
			f.CreateAttr("name", k)
			f.SetText(report.Filters[k])
		}
	}

	movements := root.CreateElement("Movements")
	for _, r := range report.Rows {
		m := movements.CreateElement("Movement")
		m.CreateAttr("id", r.ID)
		m.CreateAttr("type", r.Kind)
		m.CreateAttr("timestamp", r.CreatedAt.UTC().Format(time.RFC3339Nano))
		item := m.CreateElement("Item")
		item.CreateAttr("sku", r.ItemSKU)
		item.SetText(r.ItemName)
		if r.From != "" {
			m.CreateElement("From").SetText(r.From)
		}
		if r.To != "" {
			m.CreateElement("To").SetText(r.To)
		}
		m.CreateElement("Quantity").SetText(r.Quantity.String())
		m.CreateElement("User").SetText(r.UserEmail)
		if r.Notes != "" {
			m.CreateElement("Notes").SetText(r.Notes)
		}
	}

	kinds := make([]string, 0, len(report.Totals))
	for k := range report.Totals {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	totals := root.CreateElement("Totals")
	for _, k := range kinds {
		t := totals.CreateElement("Total")
		t.CreateAttr("type", k)
		t.SetText(report.Totals[k].String())
	}
	return doc
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// Verify recalcula el digest de un documento exportado y lo compara con el esperado.
func Verify(document []byte, digest string) (bool, error) {
	canonical, err := canonicalize(document)
	if err != nil {
		return false, err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]) == digest, nil
}
