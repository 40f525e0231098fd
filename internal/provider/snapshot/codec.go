package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// Format is the on-disk table format of a snapshot file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromName picks the format from a file name or object key extension.
// Unknown extensions are read as CSV.
func FormatFromName(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// ReadInventory decodes an inventory table.
func ReadInventory(r io.Reader, format Format) ([]domain.InventoryItem, error) {
	header, rows, err := readTable(r, format)
	if err != nil {
		return nil, err
	}
	return parseInventory(header, rows)
}

// ReadSales decodes a sales table.
func ReadSales(r io.Reader, format Format) ([]domain.SaleRecord, error) {
	header, rows, err := readTable(r, format)
	if err != nil {
		return nil, err
	}
	return parseSales(header, rows)
}

func readTable(r io.Reader, format Format) ([]string, []row, error) {
	switch format {
	case FormatXLSX:
		return readXLSX(r)
	default:
		return readCSV(r)
	}
}

func readCSV(r io.Reader) ([]string, []row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("empty table: %w", ErrMissingColumn)
		}
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	rows := make([]row, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		rows = append(rows, row{line: line, record: record})
	}

	return header, rows, nil
}

// readXLSX reads the first sheet of a workbook; the first row is the header.
func readXLSX(r io.Reader) ([]string, []row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("xlsx has no sheets")
	}
	sheet := sheets[0]

	it, err := f.Rows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer it.Close()

	var header []string
	rows := make([]row, 0)
	for line := 1; it.Next(); line++ {
		record, err := it.Columns()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row %d from sheet %s: %w", line, sheet, err)
		}
		if header == nil {
			header = record
			continue
		}
		rows = append(rows, row{line: line, record: record})
	}
	if err := it.Error(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}
	if header == nil {
		return nil, nil, fmt.Errorf("empty table: %w", ErrMissingColumn)
	}

	return header, rows, nil
}

func parseInventory(header []string, rows []row) ([]domain.InventoryItem, error) {
	idxID, err := requireColumn(header, colID...)
	if err != nil {
		return nil, err
	}
	idxStock, err := requireColumn(header, colCurrentStock...)
	if err != nil {
		return nil, err
	}
	idxSKU := columnIndex(header, colSKU...)
	idxName := columnIndex(header, colName...)
	idxCategory := columnIndex(header, colCategory...)
	idxCost := columnIndex(header, colCostPerUnit...)
	idxPrice := columnIndex(header, colPricePerUnit...)
	idxReorder := columnIndex(header, colReorderPoint...)
	idxMax := columnIndex(header, colMaxStock...)

	items := make([]domain.InventoryItem, 0, len(rows))
	var errs []error
	for _, r := range rows {
		if r.blank() {
			continue
		}

		item := domain.InventoryItem{
			ID:       r.get(idxID),
			SKU:      r.get(idxSKU),
			Name:     r.get(idxName),
			Category: r.get(idxCategory),
		}
		if item.SKU == "" {
			item.SKU = item.ID
		}

		var rowErrs []error
		item.CurrentStock, err = r.int(idxStock, colCurrentStock[0])
		rowErrs = append(rowErrs, err)
		item.CostPerUnit, err = r.float(idxCost, colCostPerUnit[0])
		rowErrs = append(rowErrs, err)
		item.PricePerUnit, err = r.float(idxPrice, colPricePerUnit[0])
		rowErrs = append(rowErrs, err)
		item.ReorderPoint, err = r.int(idxReorder, colReorderPoint[0])
		rowErrs = append(rowErrs, err)
		item.MaxStock, err = r.int(idxMax, colMaxStock[0])
		rowErrs = append(rowErrs, err)

		if err := errors.Join(rowErrs...); err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, item)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("parse inventory: %w", err)
	}
	return items, nil
}

func parseSales(header []string, rows []row) ([]domain.SaleRecord, error) {
	idxItem, err := requireColumn(header, colSaleItemID...)
	if err != nil {
		return nil, err
	}
	idxQty, err := requireColumn(header, colSaleQty...)
	if err != nil {
		return nil, err
	}
	idxDate, err := requireColumn(header, colSaleDate...)
	if err != nil {
		return nil, err
	}
	idxRevenue := columnIndex(header, colSaleRevenue...)

	sales := make([]domain.SaleRecord, 0, len(rows))
	var errs []error
	for _, r := range rows {
		if r.blank() {
			continue
		}

		sale := domain.SaleRecord{ItemID: r.get(idxItem)}

		var rowErrs []error
		sale.Quantity, err = r.int(idxQty, colSaleQty[0])
		rowErrs = append(rowErrs, err)
		sale.Date, err = r.date(idxDate, colSaleDate[0])
		rowErrs = append(rowErrs, err)
		sale.Revenue, err = r.float(idxRevenue, colSaleRevenue[0])
		rowErrs = append(rowErrs, err)

		if err := errors.Join(rowErrs...); err != nil {
			errs = append(errs, err)
			continue
		}
		sales = append(sales, sale)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("parse sales: %w", err)
	}
	return sales, nil
}

// WriteInventory encodes items in the canonical column order.
func WriteInventory(w io.Writer, items []domain.InventoryItem, format Format) error {
	records := make([][]string, 0, len(items))
	for _, item := range items {
		records = append(records, []string{
			item.ID,
			item.SKU,
			item.Name,
			item.Category,
			strconv.Itoa(item.CurrentStock),
			money(item.CostPerUnit),
			money(item.PricePerUnit),
			strconv.Itoa(item.ReorderPoint),
			strconv.Itoa(item.MaxStock),
		})
	}
	return writeTable(w, format, "inventory", inventoryHeader, records)
}

// WriteSales encodes sales in the canonical column order.
func WriteSales(w io.Writer, sales []domain.SaleRecord, format Format) error {
	records := make([][]string, 0, len(sales))
	for _, s := range sales {
		records = append(records, []string{
			s.ItemID,
			strconv.Itoa(s.Quantity),
			s.DayKey(),
			money(s.Revenue),
		})
	}
	return writeTable(w, format, "sales", salesHeader, records)
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func writeTable(w io.Writer, format Format, sheet string, header []string, records [][]string) error {
	if format == FormatXLSX {
		return writeXLSX(w, sheet, header, records)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, sheet string, header []string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	toCells := func(values []string) []interface{} {
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		return cells
	}

	headerCells := toCells(header)
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := toCells(record)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
