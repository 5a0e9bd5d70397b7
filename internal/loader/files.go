package loader

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/mtm-engine/internal/contracts"
)

var (
	contractsRequired = contracts.ContractColumns
	pricesRequired    = []string{"Index", "Date", "Price"}
	pricesOptional    = []string{"Tenor"} // blank or absent: month of Date
)

// ReadContracts reads the contracts table from a .csv or .xlsx file
func ReadContracts(path string) ([]contracts.ContractRow, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("contracts %s: %w", path, err)
	}
	return contractRows(t)
}

// ReadPrices reads the prices table from a .csv or .xlsx file
func ReadPrices(path string) ([]contracts.PriceRow, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("prices %s: %w", path, err)
	}
	return priceRows(t)
}

// ContractsFromCSV reads the contracts table from CSV text
func ContractsFromCSV(r io.Reader) ([]contracts.ContractRow, error) {
	t, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return contractRows(t)
}

// PricesFromCSV reads the prices table from CSV text
func PricesFromCSV(r io.Reader) ([]contracts.PriceRow, error) {
	t, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return priceRows(t)
}

func contractRows(t *table) ([]contracts.ContractRow, error) {
	cols, err := t.columns("contracts", contractsRequired, nil)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.ContractRow, 0, len(t.rows))
	for _, rec := range t.rows {
		out = append(out, contracts.ContractRow{
			ContractID: cell(rec, cols["ContractID"]),
			BaseIndex:  cell(rec, cols["BaseIndex"]),
			Tenor:      dateText(cell(rec, cols["Tenor"])),
			Quantity:   cell(rec, cols["Quantity"]),
			Unit:       cell(rec, cols["Unit"]),
			Moisture:   cell(rec, cols["Moisture"]),
			TypicalFe:  cell(rec, cols["TypicalFe"]),
			Cost:       cell(rec, cols["Cost"]),
			Discount:   cell(rec, cols["Discount"]),
		})
	}
	return out, nil
}

func priceRows(t *table) ([]contracts.PriceRow, error) {
	cols, err := t.columns("prices", pricesRequired, pricesOptional)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.PriceRow, 0, len(t.rows))
	for _, rec := range t.rows {
		out = append(out, contracts.PriceRow{
			Index: cell(rec, cols["Index"]),
			Date:  dateText(cell(rec, cols["Date"])),
			Tenor: dateText(cell(rec, cols["Tenor"])),
			Price: cell(rec, cols["Price"]),
		})
	}
	return out, nil
}

// Pair is one run's worth of input tables
type Pair struct {
	Contracts []contracts.ContractRow
	Prices    []contracts.PriceRow
}

// LoadPair reads both tables concurrently. The first error cancels the other read.
func LoadPair(ctx context.Context, contractsPath, pricesPath string) (*Pair, error) {
	g, ctx := errgroup.WithContext(ctx)
	pair := &Pair{}

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := ReadContracts(contractsPath)
		if err != nil {
			return err
		}
		pair.Contracts = rows
		return nil
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := ReadPrices(pricesPath)
		if err != nil {
			return err
		}
		pair.Prices = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pair, nil
}

// FileSource reads both tables from files on every call
type FileSource struct {
	ContractsPath string
	PricesPath    string
}

// Contracts implements contracts.ContractSource
func (s FileSource) Contracts(ctx context.Context) ([]contracts.ContractRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadContracts(s.ContractsPath)
}

// Prices implements contracts.PriceSource
func (s FileSource) Prices(ctx context.Context) ([]contracts.PriceRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadPrices(s.PricesPath)
}

var (
	_ contracts.ContractSource = FileSource{}
	_ contracts.PriceSource    = FileSource{}
	_ contracts.ContractSource = (*PostgresSource)(nil)
	_ contracts.PriceSource    = (*PostgresSource)(nil)
)
